package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddTaskAssignsSequentialIDsAndDefaults(t *testing.T) {
	p := &Project{}

	first := p.AddTask(Task{Title: "first"})
	second := p.AddTask(Task{Title: "second", ColumnID: "doing", Priority: "high"})

	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "todo", first.ColumnID)
	assert.Equal(t, "medium", first.Priority)

	assert.Equal(t, "2", second.ID)
	assert.Equal(t, "doing", second.ColumnID)
	assert.Equal(t, "high", second.Priority)

	assert.Equal(t, 2, p.TaskStats.Total)
	assert.Equal(t, 0, p.TaskStats.Completed)
	assert.Equal(t, 0, p.Progress)
}

func TestAddTaskOverwritesCallerSuppliedID(t *testing.T) {
	p := &Project{}
	task := p.AddTask(Task{ID: "99", Title: "sneaky"})
	assert.Equal(t, "1", task.ID)
}

func TestTaskLifecycleKeepsStatsConsistent(t *testing.T) {
	p := &Project{}

	task := p.AddTask(Task{Title: "only"})
	require.Equal(t, "1", task.ID)
	assert.Equal(t, 1, p.TaskStats.Total)
	assert.Equal(t, 0, p.TaskStats.Completed)
	assert.Equal(t, 0, p.Progress)

	done := DoneColumnID
	require.NoError(t, p.EditTask("1", TaskPatch{ColumnID: &done}))
	assert.Equal(t, 1, p.TaskStats.Completed)
	assert.Equal(t, 100, p.Progress)

	require.NoError(t, p.DeleteTask("1"))
	assert.Equal(t, 0, p.TaskStats.Total)
	assert.Equal(t, 0, p.TaskStats.Completed)
	assert.Equal(t, 0, p.Progress)
	assert.Empty(t, p.Tasks)
}

func TestEditTaskCompletionTransitions(t *testing.T) {
	p := &Project{}
	p.AddTask(Task{Title: "a"})
	p.AddTask(Task{Title: "b"})

	done := DoneColumnID
	todo := "todo"

	require.NoError(t, p.EditTask("1", TaskPatch{ColumnID: &done}))
	assert.Equal(t, 1, p.TaskStats.Completed)
	assert.Equal(t, 50, p.Progress)

	// Editing an already-done task without touching the column must not
	// change the completed counter.
	title := "renamed"
	require.NoError(t, p.EditTask("1", TaskPatch{Title: &title}))
	assert.Equal(t, 1, p.TaskStats.Completed)
	assert.Equal(t, 50, p.Progress)

	require.NoError(t, p.EditTask("1", TaskPatch{ColumnID: &todo}))
	assert.Equal(t, 0, p.TaskStats.Completed)
	assert.Equal(t, 0, p.Progress)
}

func TestStatsMatchLiveTasksAcrossSequences(t *testing.T) {
	p := &Project{}
	done := DoneColumnID

	for i := 0; i < 5; i++ {
		p.AddTask(Task{Title: "t"})
	}
	require.NoError(t, p.EditTask("2", TaskPatch{ColumnID: &done}))
	require.NoError(t, p.EditTask("4", TaskPatch{ColumnID: &done}))
	require.NoError(t, p.DeleteTask("2"))
	require.NoError(t, p.DeleteTask("1"))

	liveDone := 0
	for _, task := range p.Tasks {
		if task.ColumnID == DoneColumnID {
			liveDone++
		}
	}
	assert.Equal(t, len(p.Tasks), p.TaskStats.Total)
	assert.Equal(t, liveDone, p.TaskStats.Completed)
	assert.Equal(t, 33, p.Progress) // round(1/3*100)
}

func TestDeleteDoneTaskDecrementsCompleted(t *testing.T) {
	p := &Project{}
	done := DoneColumnID
	p.AddTask(Task{Title: "a"})
	p.AddTask(Task{Title: "b"})
	require.NoError(t, p.EditTask("1", TaskPatch{ColumnID: &done}))

	require.NoError(t, p.DeleteTask("1"))
	assert.Equal(t, 1, p.TaskStats.Total)
	assert.Equal(t, 0, p.TaskStats.Completed)
	assert.Equal(t, 0, p.Progress)
}

func TestTaskIDsStayMonotonicAfterDeletingMiddle(t *testing.T) {
	p := &Project{}
	p.AddTask(Task{})
	p.AddTask(Task{})
	p.AddTask(Task{})
	require.NoError(t, p.DeleteTask("2"))

	next := p.AddTask(Task{})
	assert.Equal(t, "4", next.ID)

	seen := map[string]bool{}
	for _, task := range p.Tasks {
		assert.False(t, seen[task.ID], "duplicate task id %s", task.ID)
		seen[task.ID] = true
	}
}

func TestTimelineIDReusedAfterDeletingOnlyEvent(t *testing.T) {
	p := &Project{}

	ev := p.AddTimelineEvent(TimelineEvent{Title: "kickoff"})
	require.Equal(t, "1", ev.ID)
	require.NoError(t, p.DeleteTimelineEvent("1"))

	// Max of an empty collection is 0, so the numeral comes back.
	again := p.AddTimelineEvent(TimelineEvent{Title: "kickoff again"})
	assert.Equal(t, "1", again.ID)
}

func TestTimelineAndCalendarCountersAreIndependent(t *testing.T) {
	p := &Project{}
	p.AddTimelineEvent(TimelineEvent{})
	p.AddTimelineEvent(TimelineEvent{})

	ev := p.AddCalendarEvent(CalendarEvent{Title: "standup"})
	assert.Equal(t, "1", ev.ID)
}

func TestNextSequenceIDIgnoresNonNumericIDs(t *testing.T) {
	assert.Equal(t, "1", nextSequenceID(nil))
	assert.Equal(t, "1", nextSequenceID([]string{"abc", ""}))
	assert.Equal(t, "8", nextSequenceID([]string{"3", "7", "junk"}))
}

func TestEditTaskPatchCannotChangeID(t *testing.T) {
	p := &Project{}
	p.AddTask(Task{Title: "a"})

	var patch TaskPatch
	require.NoError(t, json.Unmarshal([]byte(`{"id":"42","title":"renamed"}`), &patch))
	require.NoError(t, p.EditTask("1", patch))

	assert.Equal(t, "1", p.Tasks[0].ID)
	assert.Equal(t, "renamed", p.Tasks[0].Title)
}

func TestEditTimelineEventPatchCannotChangeID(t *testing.T) {
	p := &Project{}
	p.AddTimelineEvent(TimelineEvent{Title: "kickoff"})

	var patch TimelineEventPatch
	require.NoError(t, json.Unmarshal([]byte(`{"id":"42","title":"moved"}`), &patch))
	require.NoError(t, p.EditTimelineEvent("1", patch))

	assert.Equal(t, "1", p.Timeline[0].ID)
	assert.Equal(t, "moved", p.Timeline[0].Title)
}

func TestEditTeamMemberPatchCannotChangeID(t *testing.T) {
	p := &Project{}
	dept := p.AddDepartment(Department{Title: "Eng"})
	_, err := p.AddTeamMember(dept.ID, TeamMember{ID: "m1", Name: "Ana"})
	require.NoError(t, err)

	var patch TeamMemberPatch
	require.NoError(t, json.Unmarshal([]byte(`{"id":"hijack","role":"Lead"}`), &patch))
	require.NoError(t, p.EditTeamMember(dept.ID, "m1", patch))

	assert.Equal(t, "m1", p.Team[0].Members[0].ID)
	assert.Equal(t, "Lead", p.Team[0].Members[0].Role)
	assert.Equal(t, "Ana", p.Team[0].Members[0].Name)
}

func TestEditMissingEntitiesReturnNotFound(t *testing.T) {
	p := &Project{}
	assert.ErrorIs(t, p.EditTask("1", TaskPatch{}), ErrTaskNotFound)
	assert.ErrorIs(t, p.DeleteTask("1"), ErrTaskNotFound)
	assert.ErrorIs(t, p.EditTimelineEvent("1", TimelineEventPatch{}), ErrTimelineEventNotFound)
	assert.ErrorIs(t, p.DeleteCalendarEvent("1"), ErrCalendarEventNotFound)
	assert.ErrorIs(t, p.EditDepartment("x", DepartmentPatch{}), ErrDepartmentNotFound)
	assert.ErrorIs(t, p.DeleteTeamMember("x", "y"), ErrDepartmentNotFound)
}

func TestAddDepartmentDefaults(t *testing.T) {
	p := &Project{}

	dept := p.AddDepartment(Department{})
	assert.NotEmpty(t, dept.ID)
	assert.Equal(t, DefaultDepartmentTitle, dept.Title)
	assert.Equal(t, DefaultDepartmentColor, dept.Color)
	assert.NotNil(t, dept.Members)
	assert.Empty(t, dept.Members)

	custom := p.AddDepartment(Department{ID: "design", Title: "Design", Color: "#FFAA00"})
	assert.Equal(t, "design", custom.ID)
	assert.Equal(t, "Design", custom.Title)
	assert.Equal(t, "#FFAA00", custom.Color)
}

func TestEditDepartmentOnlyOverwritesSuppliedFields(t *testing.T) {
	p := &Project{}
	dept := p.AddDepartment(Department{ID: "eng", Title: "Engineering", Color: "#111111"})

	require.NoError(t, p.EditDepartment(dept.ID, DepartmentPatch{Color: "#222222"}))
	assert.Equal(t, "Engineering", p.Team[0].Title)
	assert.Equal(t, "#222222", p.Team[0].Color)
}

func TestDeleteDepartmentCascadesMembers(t *testing.T) {
	p := &Project{}
	dept := p.AddDepartment(Department{ID: "eng"})
	_, err := p.AddTeamMember("eng", TeamMember{Name: "Ana"})
	require.NoError(t, err)

	require.NoError(t, p.DeleteDepartment(dept.ID))
	assert.Empty(t, p.Team)
}

func TestAddTeamMemberRequiresName(t *testing.T) {
	p := &Project{}
	p.AddDepartment(Department{ID: "eng"})

	_, err := p.AddTeamMember("eng", TeamMember{Role: "Dev"})
	assert.ErrorIs(t, err, ErrMemberNameRequired)

	_, err = p.AddTeamMember("missing", TeamMember{Name: "Ana"})
	assert.ErrorIs(t, err, ErrDepartmentNotFound)

	member, err := p.AddTeamMember("eng", TeamMember{Name: "Ana"})
	require.NoError(t, err)
	assert.NotEmpty(t, member.ID)
}

func TestReplaceTeam(t *testing.T) {
	p := &Project{}
	p.AddDepartment(Department{ID: "old"})

	p.ReplaceTeam([]Department{{ID: "new", Title: "New", Members: []TeamMember{}}})
	require.Len(t, p.Team, 1)
	assert.Equal(t, "new", p.Team[0].ID)

	p.ReplaceTeam(nil)
	assert.NotNil(t, p.Team)
	assert.Empty(t, p.Team)
}

func TestSearchTeamMembers(t *testing.T) {
	p := &Project{}
	p.AddDepartment(Department{ID: "eng", Title: "Engineering"})
	p.AddDepartment(Department{ID: "design", Title: "Design"})
	_, err := p.AddTeamMember("eng", TeamMember{ID: "m-ana", Name: "Ana"})
	require.NoError(t, err)
	_, err = p.AddTeamMember("eng", TeamMember{ID: "m-bob", Name: "Bob"})
	require.NoError(t, err)
	_, err = p.AddTeamMember("design", TeamMember{ID: "m-anais", Name: "Anais"})
	require.NoError(t, err)

	results := p.SearchTeamMembers("ANA")
	require.Len(t, results, 2)
	assert.Equal(t, "eng", results[0].DepartmentID)
	assert.Equal(t, "Engineering", results[0].DepartmentTitle)
	assert.Equal(t, "Ana", results[0].Name)
	assert.Equal(t, "design", results[1].DepartmentID)

	// Matches on id as well as name.
	byID := p.SearchTeamMembers("m-bob")
	require.Len(t, byID, 1)
	assert.Equal(t, "Bob", byID[0].Name)

	assert.Empty(t, p.SearchTeamMembers("zzz"))
}
