package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"projex/backend/logging"
	"projex/backend/middleware"
	"projex/backend/models"
	"projex/backend/services"

	"github.com/gorilla/mux"
)

type ProjectHandler struct {
	Service *services.ProjectService
}

func NewProjectHandler(service *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{Service: service}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeError translates a service error into its status and message. Missing
// resources and ownership violations come out identically.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrProjectNotFound):
		writeMessage(w, http.StatusNotFound, "Project not found")
	case errors.Is(err, models.ErrTaskNotFound):
		writeMessage(w, http.StatusNotFound, "Task not found")
	case errors.Is(err, models.ErrTimelineEventNotFound):
		writeMessage(w, http.StatusNotFound, "Timeline event not found")
	case errors.Is(err, models.ErrCalendarEventNotFound):
		writeMessage(w, http.StatusNotFound, "Calendar event not found")
	case errors.Is(err, models.ErrDepartmentNotFound):
		writeMessage(w, http.StatusNotFound, "Department not found")
	case errors.Is(err, models.ErrTeamMemberNotFound):
		writeMessage(w, http.StatusNotFound, "Team member not found")
	case errors.Is(err, models.ErrProjectNameRequired):
		writeMessage(w, http.StatusBadRequest, "Project name is required")
	case errors.Is(err, models.ErrMemberNameRequired):
		writeMessage(w, http.StatusBadRequest, "Team member name is required")
	case errors.Is(err, services.ErrSearchQueryRequired):
		writeMessage(w, http.StatusBadRequest, "Search query is required")
	case errors.Is(err, services.ErrInvalidPatch):
		writeMessage(w, http.StatusBadRequest, "Invalid project payload")
	default:
		logging.Logger.Errorf("Event ID: REQUEST_FAILED, Description: Unhandled error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Server error")
	}
}

func accountID(r *http.Request) string {
	return middleware.AccountFromContext(r.Context())
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var project models.Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	created, err := h.Service.CreateProject(r.Context(), accountID(r), project)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Service.ListProjects(r.Context(), accountID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.Service.GetProject(r.Context(), accountID(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) EditProject(w http.ResponseWriter, r *http.Request) {
	var patch map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	updated, err := h.Service.ReplaceProjectFields(r.Context(), accountID(r), mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteProject(r.Context(), accountID(r), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Project deleted successfully")
}

func (h *ProjectHandler) AddTimelineEvent(w http.ResponseWriter, r *http.Request) {
	var event models.TimelineEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	project, err := h.Service.AddTimelineEvent(r.Context(), accountID(r), mux.Vars(r)["id"], event)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) EditTimelineEvent(w http.ResponseWriter, r *http.Request) {
	var patch models.TimelineEventPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	vars := mux.Vars(r)
	project, err := h.Service.EditTimelineEvent(r.Context(), accountID(r), vars["id"], vars["eventId"], patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) DeleteTimelineEvent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.Service.DeleteTimelineEvent(r.Context(), accountID(r), vars["id"], vars["eventId"]); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Timeline event deleted successfully")
}

func (h *ProjectHandler) AddCalendarEvent(w http.ResponseWriter, r *http.Request) {
	var event models.CalendarEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	project, err := h.Service.AddCalendarEvent(r.Context(), accountID(r), mux.Vars(r)["id"], event)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) EditCalendarEvent(w http.ResponseWriter, r *http.Request) {
	var patch models.CalendarEventPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	vars := mux.Vars(r)
	project, err := h.Service.EditCalendarEvent(r.Context(), accountID(r), vars["id"], vars["eventId"], patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) DeleteCalendarEvent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.Service.DeleteCalendarEvent(r.Context(), accountID(r), vars["id"], vars["eventId"]); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Calendar event deleted successfully")
}

func (h *ProjectHandler) AddDepartment(w http.ResponseWriter, r *http.Request) {
	var dept models.Department
	if err := json.NewDecoder(r.Body).Decode(&dept); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	project, err := h.Service.AddDepartment(r.Context(), accountID(r), mux.Vars(r)["id"], dept)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) EditDepartment(w http.ResponseWriter, r *http.Request) {
	var patch models.DepartmentPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	vars := mux.Vars(r)
	project, err := h.Service.EditDepartment(r.Context(), accountID(r), vars["id"], vars["departmentId"], patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.Service.DeleteDepartment(r.Context(), accountID(r), vars["id"], vars["departmentId"]); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Department deleted successfully")
}

func (h *ProjectHandler) AddTeamMember(w http.ResponseWriter, r *http.Request) {
	var member models.TeamMember
	if err := json.NewDecoder(r.Body).Decode(&member); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	vars := mux.Vars(r)
	project, err := h.Service.AddTeamMember(r.Context(), accountID(r), vars["id"], vars["departmentId"], member)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) EditTeamMember(w http.ResponseWriter, r *http.Request) {
	var patch models.TeamMemberPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	vars := mux.Vars(r)
	project, err := h.Service.EditTeamMember(r.Context(), accountID(r), vars["id"], vars["departmentId"], vars["memberId"], patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) DeleteTeamMember(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.Service.DeleteTeamMember(r.Context(), accountID(r), vars["id"], vars["departmentId"], vars["memberId"]); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Team member deleted successfully")
}

func (h *ProjectHandler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Team []models.Department `json:"team"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	project, err := h.Service.UpdateTeam(r.Context(), accountID(r), mux.Vars(r)["id"], req.Team)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	var task models.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	project, err := h.Service.AddTask(r.Context(), accountID(r), mux.Vars(r)["id"], task)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) EditTask(w http.ResponseWriter, r *http.Request) {
	var patch models.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	vars := mux.Vars(r)
	project, err := h.Service.EditTask(r.Context(), accountID(r), vars["id"], vars["taskId"], patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.Service.DeleteTask(r.Context(), accountID(r), vars["id"], vars["taskId"]); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Task deleted successfully")
}
