package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"projex/backend/logging"
	"projex/backend/models"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProjectService owns the project aggregate's lifecycle. Every operation takes
// the authenticated account id and applies it as an ownership filter; a project
// owned by someone else is indistinguishable from a missing one.
type ProjectService struct {
	ProjectsCollection *mongo.Collection
	Breaker            *gobreaker.CircuitBreaker
}

func NewProjectService(projectsCollection *mongo.Collection, breaker *gobreaker.CircuitBreaker) *ProjectService {
	return &ProjectService{
		ProjectsCollection: projectsCollection,
		Breaker:            breaker,
	}
}

// execWrite routes a storage write through the circuit breaker so a failing
// store trips fast instead of stacking up timed-out requests.
func (s *ProjectService) execWrite(op func() (interface{}, error)) (interface{}, error) {
	if s.Breaker == nil {
		return op()
	}
	return s.Breaker.Execute(op)
}

func (s *ProjectService) ownershipFilter(accountID, projectID string) (bson.M, error) {
	owner, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return nil, ErrProjectNotFound
	}
	id, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		return nil, ErrProjectNotFound
	}
	return bson.M{"_id": id, "createdBy": owner}, nil
}

// newProjectDocument shapes a client-submitted project into the document that
// gets persisted. Tasks are never taken from the client: the task list starts
// empty so taskStats and progress begin consistent with it, and tasks only
// ever enter through AddTask.
func newProjectDocument(owner primitive.ObjectID, project models.Project) models.Project {
	now := time.Now()
	project.ID = primitive.NewObjectID()
	project.CreatedBy = owner
	project.Tasks = []models.Task{}
	project.TaskStats = models.TaskStats{}
	project.Version = 1
	project.CreatedAt = now
	project.UpdatedAt = now
	if project.Priority == "" {
		project.Priority = "Medium"
	}
	if project.Columns == nil {
		project.Columns = []models.Column{}
	}
	if project.Timeline == nil {
		project.Timeline = []models.TimelineEvent{}
	}
	if project.Calendar == nil {
		project.Calendar = []models.CalendarEvent{}
	}
	if project.Team == nil {
		project.Team = []models.Department{}
	}
	project.RecalculateProgress()
	return project
}

// CreateProject validates and persists a new project owned by accountID.
func (s *ProjectService) CreateProject(ctx context.Context, accountID string, project models.Project) (*models.Project, error) {
	if project.Name == "" {
		return nil, models.ErrProjectNameRequired
	}
	owner, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return nil, fmt.Errorf("invalid account id: %w", err)
	}

	doc := newProjectDocument(owner, project)
	_, err = s.execWrite(func() (interface{}, error) {
		return s.ProjectsCollection.InsertOne(ctx, doc)
	})
	if err != nil {
		logging.Logger.Errorf("Event ID: PROJECT_INSERT_FAILED, Description: Failed to create project %q: %v", doc.Name, err)
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return &doc, nil
}

// ListProjects returns every project owned by accountID.
func (s *ProjectService) ListProjects(ctx context.Context, accountID string) ([]models.Project, error) {
	owner, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return nil, fmt.Errorf("invalid account id: %w", err)
	}

	cursor, err := s.ProjectsCollection.Find(ctx, bson.M{"createdBy": owner})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}
	defer cursor.Close(ctx)

	projects := []models.Project{}
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}
	return projects, nil
}

func (s *ProjectService) GetProject(ctx context.Context, accountID, projectID string) (*models.Project, error) {
	return s.findOwned(ctx, accountID, projectID)
}

func (s *ProjectService) findOwned(ctx context.Context, accountID, projectID string) (*models.Project, error) {
	filter, err := s.ownershipFilter(accountID, projectID)
	if err != nil {
		return nil, err
	}

	var project models.Project
	if err := s.ProjectsCollection.FindOne(ctx, filter).Decode(&project); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}
	return &project, nil
}

// saveProject replaces the whole document, guarded by the version the caller
// loaded. A concurrent writer that got there first makes the filter miss.
func (s *ProjectService) saveProject(ctx context.Context, project *models.Project) error {
	prevVersion := project.Version
	project.Version++
	project.UpdatedAt = time.Now()

	res, err := s.execWrite(func() (interface{}, error) {
		return s.ProjectsCollection.ReplaceOne(ctx, bson.M{
			"_id":       project.ID,
			"createdBy": project.CreatedBy,
			"version":   prevVersion,
		}, project)
	})
	if err != nil {
		logging.Logger.Errorf("Event ID: PROJECT_SAVE_FAILED, Description: Failed to save project %s: %v", project.ID.Hex(), err)
		return fmt.Errorf("failed to save project: %w", err)
	}
	if res.(*mongo.UpdateResult).MatchedCount == 0 {
		logging.Logger.Warnf("Event ID: PROJECT_SAVE_CONFLICT, Description: Version conflict saving project %s", project.ID.Hex())
		return ErrConcurrentModification
	}
	return nil
}

// ReplaceProjectFields shallow-merges the patch into the document; a nested
// collection present in the patch fully replaces the stored one. Identifier,
// owner and bookkeeping fields in the patch are discarded.
func (s *ProjectService) ReplaceProjectFields(ctx context.Context, accountID, projectID string, patch map[string]interface{}) (*models.Project, error) {
	filter, err := s.ownershipFilter(accountID, projectID)
	if err != nil {
		return nil, err
	}
	for _, k := range []string{"_id", "id", "createdBy", "version", "createdAt", "updatedAt"} {
		delete(patch, k)
	}
	if err := normalizeProjectPatch(patch); err != nil {
		return nil, err
	}
	patch["updatedAt"] = time.Now()

	update := bson.M{"$set": patch, "$inc": bson.M{"version": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	// A miss is a normal outcome, not a store failure; it must not count
	// against the breaker.
	var notFound bool
	res, err := s.execWrite(func() (interface{}, error) {
		var p models.Project
		if err := s.ProjectsCollection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				notFound = true
				return nil, nil
			}
			return nil, err
		}
		return &p, nil
	})
	if err != nil {
		logging.Logger.Errorf("Event ID: PROJECT_UPDATE_FAILED, Description: Failed to update project %s: %v", projectID, err)
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	if notFound {
		return nil, ErrProjectNotFound
	}
	return res.(*models.Project), nil
}

// normalizeProjectPatch coerces JSON-decoded patch values into the shapes the
// stored document uses, so later decodes into the typed model cannot fail.
func normalizeProjectPatch(patch map[string]interface{}) error {
	if v, ok := patch["dueDate"]; ok {
		if str, isStr := v.(string); isStr {
			t, err := time.Parse(time.RFC3339, str)
			if err != nil {
				return ErrInvalidPatch
			}
			patch["dueDate"] = t
		}
	}
	if v, ok := patch["progress"]; ok {
		if f, isNum := v.(float64); isNum {
			patch["progress"] = int(math.Round(f))
		}
	}
	if v, ok := patch["tasks"]; ok {
		var tasks []models.Task
		if err := reencode(v, &tasks); err != nil {
			return ErrInvalidPatch
		}
		patch["tasks"] = tasks
	}
	if v, ok := patch["columns"]; ok {
		var columns []models.Column
		if err := reencode(v, &columns); err != nil {
			return ErrInvalidPatch
		}
		patch["columns"] = columns
	}
	if v, ok := patch["timeline"]; ok {
		var timeline []models.TimelineEvent
		if err := reencode(v, &timeline); err != nil {
			return ErrInvalidPatch
		}
		patch["timeline"] = timeline
	}
	if v, ok := patch["calendar"]; ok {
		var calendar []models.CalendarEvent
		if err := reencode(v, &calendar); err != nil {
			return ErrInvalidPatch
		}
		patch["calendar"] = calendar
	}
	if v, ok := patch["team"]; ok {
		var team []models.Department
		if err := reencode(v, &team); err != nil {
			return ErrInvalidPatch
		}
		patch["team"] = team
	}
	if v, ok := patch["taskStats"]; ok {
		var stats models.TaskStats
		if err := reencode(v, &stats); err != nil {
			return ErrInvalidPatch
		}
		patch["taskStats"] = stats
	}
	return nil
}

func reencode(src, dst interface{}) error {
	b, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// DeleteProject removes the whole document, cascading all nested collections.
func (s *ProjectService) DeleteProject(ctx context.Context, accountID, projectID string) error {
	filter, err := s.ownershipFilter(accountID, projectID)
	if err != nil {
		return err
	}

	res, err := s.execWrite(func() (interface{}, error) {
		return s.ProjectsCollection.DeleteOne(ctx, filter)
	})
	if err != nil {
		logging.Logger.Errorf("Event ID: PROJECT_DELETE_FAILED, Description: Failed to delete project %s: %v", projectID, err)
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if res.(*mongo.DeleteResult).DeletedCount == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (s *ProjectService) AddTimelineEvent(ctx context.Context, accountID, projectID string, event models.TimelineEvent) (*models.Project, error) {
	project, err := s.findOwned(ctx, accountID, projectID)
	if err != nil {
		return nil, err
	}
	project.AddTimelineEvent(event)
	if err := s.saveProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) EditTimelineEvent(ctx context.Context, accountID, projectID, eventID string, patch models.TimelineEventPatch) (*models.Project, error) {
	project, err := s.findOwned(ctx, accountID, projectID)
	if err != nil {
		return nil, err
	}
	if err := project.EditTimelineEvent(eventID, patch); err != nil {
		return nil, err
	}
	if err := s.saveProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) DeleteTimelineEvent(ctx context.Context, accountID, projectID, eventID string) error {
	project, err := s.findOwned(ctx, accountID, projectID)
	if err != nil {
		return err
	}
	if err := project.DeleteTimelineEvent(eventID); err != nil {
		return err
	}
	return s.saveProject(ctx, project)
}

func (s *ProjectService) AddCalendarEvent(ctx context.Context, accountID, projectID string, event models.CalendarEvent) (*models.Project, error) {
	project, err := s.findOwned(ctx, accountID, projectID)
	if err != nil {
		return nil, err
	}
	project.AddCalendarEvent(event)
	if err := s.saveProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) EditCalendarEvent(ctx context.Context, accountID, projectID, eventID string, patch models.CalendarEventPatch) (*models.Project, error) {
	project, err := s.findOwned(ctx, accountID, projectID)
	if err != nil {
		return nil, err
	}
	if err := project.EditCalendarEvent(eventID, patch); err != nil {
		return nil, err
	}
	if err := s.saveProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) DeleteCalendarEvent(ctx context.Context, accountID, projectID, eventID string) error {
	project, err := s.findOwned(ctx, accountID, projectID)
	if err != nil {
		return err
	}
	if err := project.DeleteCalendarEvent(eventID); err != nil {
		return err
	}
	return s.saveProject(ctx, project)
}

func (s *ProjectService) AddDepartment(ctx context.Context, accountID, projectID string, dept models.Department) (*models.Project, error) {
	project, err := s.findOwned(ctx, accountID, projectID)
	if err != nil {
		return nil, err
	}
	project.AddDepartment(dept)
	if err := s.saveProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) EditDepartment(ctx context.Context, accountID, projectID, departmentID string, patch models.DepartmentPatch) (*models.Project, error) {
	project, err := s.findOwned(ctx, accountID, projectID)
	if err != nil {
		return nil, err
	}
	if err := project.EditDepartment(departmentID, patch); err != nil {
		return nil, err
	}
	if err := s.saveProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) DeleteDepartment(ctx context.Context, accountID, projectID, departmentID string) error {
	project, err := s.findOwned(ctx, accountID, projectID)
	if err != nil {
		return err
	}
	if err := project.DeleteDepartment(departmentID); err != nil {
		return err
	}
	return s.saveProject(ctx, project)
}

func (s *ProjectService) AddTeamMember(ctx context.Context, accountID, projectID, departmentID string, member models.TeamMember) (*models.Project, error) {
	project, err := s.findOwned(ctx, accountID, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := project.AddTeamMember(departmentID, member); err != nil {
		return nil, err
	}
	if err := s.saveProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) EditTeamMember(ctx context.Context, accountID, projectID, departmentID, memberID string, patch models.TeamMemberPatch) (*models.Project, error) {
	project, err := s.findOwned(ctx, accountID, projectID)
	if err != nil {
		return nil, err
	}
	if err := project.EditTeamMember(departmentID, memberID, patch); err != nil {
		return nil, err
	}
	if err := s.saveProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) DeleteTeamMember(ctx context.Context, accountID, projectID, departmentID, memberID string) error {
	project, err := s.findOwned(ctx, accountID, projectID)
	if err != nil {
		return err
	}
	if err := project.DeleteTeamMember(departmentID, memberID); err != nil {
		return err
	}
	return s.saveProject(ctx, project)
}

// UpdateTeam wholesale-replaces the team collection with the supplied array.
func (s *ProjectService) UpdateTeam(ctx context.Context, accountID, projectID string, team []models.Department) (*models.Project, error) {
	project, err := s.findOwned(ctx, accountID, projectID)
	if err != nil {
		return nil, err
	}
	project.ReplaceTeam(team)
	if err := s.saveProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// SearchTeamMembers matches members across all departments by name or id.
// Not routed anywhere yet; kept for the team picker planned on the frontend.
func (s *ProjectService) SearchTeamMembers(ctx context.Context, accountID, projectID, query string) ([]models.TeamMemberSearchResult, error) {
	if query == "" {
		return nil, ErrSearchQueryRequired
	}
	project, err := s.findOwned(ctx, accountID, projectID)
	if err != nil {
		return nil, err
	}
	return project.SearchTeamMembers(query), nil
}

func (s *ProjectService) AddTask(ctx context.Context, accountID, projectID string, task models.Task) (*models.Project, error) {
	project, err := s.findOwned(ctx, accountID, projectID)
	if err != nil {
		return nil, err
	}
	project.AddTask(task)
	if err := s.saveProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) EditTask(ctx context.Context, accountID, projectID, taskID string, patch models.TaskPatch) (*models.Project, error) {
	project, err := s.findOwned(ctx, accountID, projectID)
	if err != nil {
		return nil, err
	}
	if err := project.EditTask(taskID, patch); err != nil {
		return nil, err
	}
	if err := s.saveProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) DeleteTask(ctx context.Context, accountID, projectID, taskID string) error {
	project, err := s.findOwned(ctx, accountID, projectID)
	if err != nil {
		return err
	}
	if err := project.DeleteTask(taskID); err != nil {
		return err
	}
	return s.saveProject(ctx, project)
}
