package models

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DoneColumnID is the sentinel column for completed tasks.
const DoneColumnID = "done"

const (
	DefaultDepartmentTitle = "New Department"
	DefaultDepartmentColor = "#4A6CFA"
)

var (
	ErrProjectNameRequired   = errors.New("project name is required")
	ErrMemberNameRequired    = errors.New("team member name is required")
	ErrTaskNotFound          = errors.New("task not found")
	ErrTimelineEventNotFound = errors.New("timeline event not found")
	ErrCalendarEventNotFound = errors.New("calendar event not found")
	ErrDepartmentNotFound    = errors.New("department not found")
	ErrTeamMemberNotFound    = errors.New("team member not found")
)

type Task struct {
	ID          string     `bson:"id" json:"id"`
	Title       string     `bson:"title,omitempty" json:"title,omitempty"`
	Name        string     `bson:"name,omitempty" json:"name,omitempty"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
	ColumnID    string     `bson:"columnId" json:"columnId"`
	Assignee    string     `bson:"assignee,omitempty" json:"assignee,omitempty"`
	Priority    string     `bson:"priority" json:"priority"`
	DueDate     *time.Time `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
}

type Column struct {
	ID    string `bson:"id" json:"id"`
	Title string `bson:"title,omitempty" json:"title,omitempty"`
	Color string `bson:"color,omitempty" json:"color,omitempty"`
	Tasks []Task `bson:"tasks" json:"tasks"`
}

type TimelineEvent struct {
	ID          string `bson:"id" json:"id"`
	Title       string `bson:"title,omitempty" json:"title,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Category    string `bson:"category,omitempty" json:"category,omitempty"`
	Date        string `bson:"date,omitempty" json:"date,omitempty"`
	Time        string `bson:"time,omitempty" json:"time,omitempty"`
	Timestamp   int64  `bson:"timestamp,omitempty" json:"timestamp,omitempty"`
}

type CalendarEvent struct {
	ID          string `bson:"id" json:"id"`
	Title       string `bson:"title,omitempty" json:"title,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Type        string `bson:"type,omitempty" json:"type,omitempty"`
	Date        string `bson:"date,omitempty" json:"date,omitempty"`
	Time        string `bson:"time,omitempty" json:"time,omitempty"`
}

type TeamMember struct {
	ID         string `bson:"id" json:"id"`
	Name       string `bson:"name" json:"name"`
	Role       string `bson:"role,omitempty" json:"role,omitempty"`
	Status     string `bson:"status,omitempty" json:"status,omitempty"`
	Department string `bson:"department,omitempty" json:"department,omitempty"`
}

type Department struct {
	ID      string       `bson:"id" json:"id"`
	Title   string       `bson:"title" json:"title"`
	Color   string       `bson:"color" json:"color"`
	Members []TeamMember `bson:"members" json:"members"`
}

type TaskStats struct {
	Completed int `bson:"completed" json:"completed"`
	Total     int `bson:"total" json:"total"`
}

// Project is the root aggregate. Nested collections are mutated through the
// methods below so that taskStats and progress stay consistent with the tasks
// array and sequential identifiers stay unique per collection.
type Project struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedBy   primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	DueDate     *time.Time         `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	Color       string             `bson:"color,omitempty" json:"color,omitempty"`
	Priority    string             `bson:"priority" json:"priority"`
	Progress    int                `bson:"progress" json:"progress"`
	Tasks       []Task             `bson:"tasks" json:"tasks"`
	TaskStats   TaskStats          `bson:"taskStats" json:"taskStats"`
	Columns     []Column           `bson:"columns" json:"columns"`
	Timeline    []TimelineEvent    `bson:"timeline" json:"timeline"`
	Calendar    []CalendarEvent    `bson:"calendar" json:"calendar"`
	Team        []Department       `bson:"team" json:"team"`
	Version     int64              `bson:"version" json:"-"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Patch types carry only the mutable fields of their entity; identifiers are
// deliberately absent so an "id" in a request body can never change one.

type TaskPatch struct {
	Title       *string    `json:"title"`
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	ColumnID    *string    `json:"columnId"`
	Assignee    *string    `json:"assignee"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
}

type TimelineEventPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
	Timestamp   *int64  `json:"timestamp"`
}

type CalendarEventPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Type        *string `json:"type"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
}

type DepartmentPatch struct {
	Title string `json:"title"`
	Color string `json:"color"`
}

type TeamMemberPatch struct {
	Name       *string `json:"name"`
	Role       *string `json:"role"`
	Status     *string `json:"status"`
	Department *string `json:"department"`
}

// TeamMemberSearchResult is a matched member annotated with its department.
type TeamMemberSearchResult struct {
	DepartmentID    string `json:"departmentId"`
	DepartmentTitle string `json:"departmentTitle"`
	TeamMember
}

// nextSequenceID returns max(numeric ids)+1 as a string. Non-numeric ids count
// as 0, so an empty or garbage collection starts at "1".
func nextSequenceID(ids []string) string {
	maxID := 0
	for _, id := range ids {
		if n, err := strconv.Atoi(id); err == nil && n > maxID {
			maxID = n
		}
	}
	return strconv.Itoa(maxID + 1)
}

func taskIDs(tasks []Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

// RecalculateProgress derives progress from taskStats.
func (p *Project) RecalculateProgress() {
	if p.TaskStats.Total > 0 {
		p.Progress = int(math.Round(float64(p.TaskStats.Completed) / float64(p.TaskStats.Total) * 100))
	} else {
		p.Progress = 0
	}
}

// AddTask assigns the next sequential task id, applies defaults and updates the
// task stats. Any id supplied by the caller is overwritten.
func (p *Project) AddTask(task Task) Task {
	task.ID = nextSequenceID(taskIDs(p.Tasks))
	if task.ColumnID == "" {
		task.ColumnID = "todo"
	}
	if task.Priority == "" {
		task.Priority = "medium"
	}

	p.Tasks = append(p.Tasks, task)
	p.TaskStats.Total++
	p.RecalculateProgress()
	return task
}

func (p *Project) EditTask(taskID string, patch TaskPatch) error {
	var task *Task
	for i := range p.Tasks {
		if p.Tasks[i].ID == taskID {
			task = &p.Tasks[i]
			break
		}
	}
	if task == nil {
		return ErrTaskNotFound
	}

	wasDone := task.ColumnID == DoneColumnID

	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Name != nil {
		task.Name = *patch.Name
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.ColumnID != nil {
		task.ColumnID = *patch.ColumnID
	}
	if patch.Assignee != nil {
		task.Assignee = *patch.Assignee
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}

	isDone := task.ColumnID == DoneColumnID
	if !wasDone && isDone {
		p.TaskStats.Completed++
	} else if wasDone && !isDone {
		p.TaskStats.Completed--
	}
	p.RecalculateProgress()
	return nil
}

func (p *Project) DeleteTask(taskID string) error {
	for i := range p.Tasks {
		if p.Tasks[i].ID != taskID {
			continue
		}
		wasDone := p.Tasks[i].ColumnID == DoneColumnID
		p.Tasks = append(p.Tasks[:i], p.Tasks[i+1:]...)
		p.TaskStats.Total--
		if wasDone {
			p.TaskStats.Completed--
		}
		p.RecalculateProgress()
		return nil
	}
	return ErrTaskNotFound
}

// AddTimelineEvent assigns the next sequential timeline id and appends.
func (p *Project) AddTimelineEvent(event TimelineEvent) TimelineEvent {
	ids := make([]string, len(p.Timeline))
	for i, ev := range p.Timeline {
		ids[i] = ev.ID
	}
	event.ID = nextSequenceID(ids)
	p.Timeline = append(p.Timeline, event)
	return event
}

func (p *Project) EditTimelineEvent(eventID string, patch TimelineEventPatch) error {
	for i := range p.Timeline {
		if p.Timeline[i].ID != eventID {
			continue
		}
		ev := &p.Timeline[i]
		if patch.Title != nil {
			ev.Title = *patch.Title
		}
		if patch.Description != nil {
			ev.Description = *patch.Description
		}
		if patch.Category != nil {
			ev.Category = *patch.Category
		}
		if patch.Date != nil {
			ev.Date = *patch.Date
		}
		if patch.Time != nil {
			ev.Time = *patch.Time
		}
		if patch.Timestamp != nil {
			ev.Timestamp = *patch.Timestamp
		}
		return nil
	}
	return ErrTimelineEventNotFound
}

func (p *Project) DeleteTimelineEvent(eventID string) error {
	for i := range p.Timeline {
		if p.Timeline[i].ID == eventID {
			p.Timeline = append(p.Timeline[:i], p.Timeline[i+1:]...)
			return nil
		}
	}
	return ErrTimelineEventNotFound
}

// AddCalendarEvent assigns the next sequential calendar id and appends. The
// calendar counter is independent from the timeline one.
func (p *Project) AddCalendarEvent(event CalendarEvent) CalendarEvent {
	ids := make([]string, len(p.Calendar))
	for i, ev := range p.Calendar {
		ids[i] = ev.ID
	}
	event.ID = nextSequenceID(ids)
	p.Calendar = append(p.Calendar, event)
	return event
}

func (p *Project) EditCalendarEvent(eventID string, patch CalendarEventPatch) error {
	for i := range p.Calendar {
		if p.Calendar[i].ID != eventID {
			continue
		}
		ev := &p.Calendar[i]
		if patch.Title != nil {
			ev.Title = *patch.Title
		}
		if patch.Description != nil {
			ev.Description = *patch.Description
		}
		if patch.Type != nil {
			ev.Type = *patch.Type
		}
		if patch.Date != nil {
			ev.Date = *patch.Date
		}
		if patch.Time != nil {
			ev.Time = *patch.Time
		}
		return nil
	}
	return ErrCalendarEventNotFound
}

func (p *Project) DeleteCalendarEvent(eventID string) error {
	for i := range p.Calendar {
		if p.Calendar[i].ID == eventID {
			p.Calendar = append(p.Calendar[:i], p.Calendar[i+1:]...)
			return nil
		}
	}
	return ErrCalendarEventNotFound
}

func (p *Project) findDepartment(departmentID string) *Department {
	for i := range p.Team {
		if p.Team[i].ID == departmentID {
			return &p.Team[i]
		}
	}
	return nil
}

// AddDepartment appends a department, generating an id when the caller did not
// supply one and filling in the default title and color.
func (p *Project) AddDepartment(dept Department) Department {
	if dept.ID == "" {
		dept.ID = primitive.NewObjectID().Hex()
	}
	if dept.Title == "" {
		dept.Title = DefaultDepartmentTitle
	}
	if dept.Color == "" {
		dept.Color = DefaultDepartmentColor
	}
	dept.Members = []TeamMember{}

	p.Team = append(p.Team, dept)
	return dept
}

func (p *Project) EditDepartment(departmentID string, patch DepartmentPatch) error {
	dept := p.findDepartment(departmentID)
	if dept == nil {
		return ErrDepartmentNotFound
	}
	if patch.Title != "" {
		dept.Title = patch.Title
	}
	if patch.Color != "" {
		dept.Color = patch.Color
	}
	return nil
}

func (p *Project) DeleteDepartment(departmentID string) error {
	for i := range p.Team {
		if p.Team[i].ID == departmentID {
			p.Team = append(p.Team[:i], p.Team[i+1:]...)
			return nil
		}
	}
	return ErrDepartmentNotFound
}

// AddTeamMember appends a member to the given department. The member id is
// caller-supplied or generated; the name is required.
func (p *Project) AddTeamMember(departmentID string, member TeamMember) (TeamMember, error) {
	if member.Name == "" {
		return TeamMember{}, ErrMemberNameRequired
	}
	dept := p.findDepartment(departmentID)
	if dept == nil {
		return TeamMember{}, ErrDepartmentNotFound
	}
	if member.ID == "" {
		member.ID = primitive.NewObjectID().Hex()
	}
	dept.Members = append(dept.Members, member)
	return member, nil
}

func (p *Project) EditTeamMember(departmentID, memberID string, patch TeamMemberPatch) error {
	dept := p.findDepartment(departmentID)
	if dept == nil {
		return ErrDepartmentNotFound
	}
	for i := range dept.Members {
		if dept.Members[i].ID != memberID {
			continue
		}
		m := &dept.Members[i]
		if patch.Name != nil {
			m.Name = *patch.Name
		}
		if patch.Role != nil {
			m.Role = *patch.Role
		}
		if patch.Status != nil {
			m.Status = *patch.Status
		}
		if patch.Department != nil {
			m.Department = *patch.Department
		}
		return nil
	}
	return ErrTeamMemberNotFound
}

func (p *Project) DeleteTeamMember(departmentID, memberID string) error {
	dept := p.findDepartment(departmentID)
	if dept == nil {
		return ErrDepartmentNotFound
	}
	for i := range dept.Members {
		if dept.Members[i].ID == memberID {
			dept.Members = append(dept.Members[:i], dept.Members[i+1:]...)
			return nil
		}
	}
	return ErrTeamMemberNotFound
}

// ReplaceTeam wholesale-replaces the team collection.
func (p *Project) ReplaceTeam(team []Department) {
	if team == nil {
		team = []Department{}
	}
	p.Team = team
}

// SearchTeamMembers scans every department for members whose name or id
// contains the query, case-insensitively.
func (p *Project) SearchTeamMembers(query string) []TeamMemberSearchResult {
	results := []TeamMemberSearchResult{}
	q := strings.ToLower(query)
	for _, dept := range p.Team {
		for _, member := range dept.Members {
			if strings.Contains(strings.ToLower(member.Name), q) ||
				strings.Contains(strings.ToLower(member.ID), q) {
				results = append(results, TeamMemberSearchResult{
					DepartmentID:    dept.ID,
					DepartmentTitle: dept.Title,
					TeamMember:      member,
				})
			}
		}
	}
	return results
}
