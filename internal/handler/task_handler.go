package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/todoapi/internal/metrics"
	"github.com/hitoshi/todoapi/internal/middleware"
	"github.com/hitoshi/todoapi/internal/model"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	List(ctx context.Context, ownerID string) ([]*model.Task, error)
	Create(ctx context.Context, ownerID, title, description string) (*model.Task, error)
	Update(ctx context.Context, ownerID, taskID string, patch model.TaskPatch) (*model.Task, error)
	Delete(ctx context.Context, ownerID, taskID string) error
	Stats(ctx context.Context, ownerID string) (model.TaskStats, error)
}

// TaskHandler はタスク管理のHTTPハンドラー。
type TaskHandler struct {
	service  TaskServiceInterface
	recorder metrics.Recorder
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface, recorder metrics.Recorder) *TaskHandler {
	return &TaskHandler{
		service:  service,
		recorder: recorder,
	}
}

// createTaskRequest はタスク作成リクエストのボディ。
type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// updateTaskRequest はタスク部分更新リクエストのボディ。
// 省略したフィールドは変更しない。
type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// taskResponse はタスク情報のAPIレスポンス。
type taskResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"createdAt"`
}

// statsResponse はタスク集計のAPIレスポンス。
type statsResponse struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// messageResponse は処理結果メッセージのAPIレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

func toTaskResponse(t *model.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ListTasks は認証済みアカウントのタスク一覧を返す。
// GET /api/todos
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	tasks, err := h.service.List(r.Context(), ownerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, toTaskResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateTask はタスクを作成する。
// POST /api/todos
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	var req createTaskRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	task, err := h.service.Create(r.Context(), ownerID, req.Title, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.recorder.RecordTaskOperation("create")
	writeJSON(w, http.StatusCreated, toTaskResponse(task))
}

// UpdateTask はタスクを部分更新する。
// 空のボディは変更なしとして扱い、現在のタスクを返す。
// PATCH /api/todos/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	patch := model.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	}

	task, err := h.service.Update(r.Context(), ownerID, chi.URLParam(r, "id"), patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.recorder.RecordTaskOperation("update")
	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

// DeleteTask はタスクを削除する。
// DELETE /api/todos/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), ownerID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	h.recorder.RecordTaskOperation("delete")
	writeJSON(w, http.StatusOK, messageResponse{Message: "タスクを削除しました。"})
}

// Stats はタスクの総数と完了数を返す。
// GET /api/todos/stats
func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), ownerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Total:     stats.Total,
		Completed: stats.Completed,
	})
}

// ownerID は認証済みアカウントのIDを返す。
// 取得できない場合は401を書き込み、falseを返す。
func (h *TaskHandler) ownerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	accountID, err := middleware.AccountIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return "", false
	}
	return accountID, true
}
