package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/salon-scheduler/internal/application"
	"github.com/example/salon-scheduler/internal/scheduler"
)

var (
	errBadRequestBody      = errors.New("無効なリクエスト形式です。")
	errMissingDate         = errors.New("日付を指定してください。")
	errMissingSessionToken = errors.New("認証トークンを指定してください")
)

type responder struct {
	logger  *slog.Logger
	metrics *Metrics
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) withMetrics(m *Metrics) responder {
	r.metrics = m
	return r
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).WarnContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps service and placement errors onto HTTP responses.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var se *scheduler.Error
	if errors.As(err, &se) {
		r.metrics.observeRejection(se.Kind)
		if se.Kind == scheduler.KindNotFound && se.Field == "" {
			r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: localizedStatusMessage(http.StatusNotFound)})
			return
		}
		resp := errorResponse{
			ErrorCode: string(se.Kind),
			Message:   schedulerMessage(se),
			Field:     se.Field,
		}
		if se.Kind == scheduler.KindTimeConflict {
			resp.ConflictingBlockID = se.ID
		}
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, resp)
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized),
		errors.Is(err, application.ErrSessionExpired),
		errors.Is(err, application.ErrSessionRevoked):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{Message: localizedStatusMessage(http.StatusUnauthorized)})
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "invalid_credentials",
			Message:   "ユーザー名またはパスワードが正しくありません。",
		})
	case errors.Is(err, application.ErrForbidden):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "forbidden",
			Message:   "他のユーザーのスタッフには割り当てられません。",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: localizedStatusMessage(http.StatusNotFound)})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "既に登録されています。"})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
				Message: localizedStatusMessage(http.StatusBadRequest),
				Errors:  localizeValidationErrors(vErr),
			})
			return
		}

		r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: localizedStatusMessage(http.StatusInternalServerError)})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "リクエスト内容が正しくありません。"
	case http.StatusUnauthorized:
		return "認証が必要です。"
	case http.StatusForbidden:
		return "この操作を実行する権限がありません。"
	case http.StatusNotFound:
		return "指定されたリソースが見つかりません。"
	case http.StatusConflict:
		return "要求はリソースの現在の状態と競合しています。"
	case http.StatusUnprocessableEntity:
		return "予定を配置できません。"
	default:
		return "サーバー内部でエラーが発生しました。"
	}
}

func schedulerMessage(se *scheduler.Error) string {
	switch se.Kind {
	case scheduler.KindInvalidQuantization:
		return "時刻は15分単位で指定してください。"
	case scheduler.KindInvalidDuration:
		return "終了時刻は開始時刻より後である必要があります。"
	case scheduler.KindDurationTooShort:
		return "予定は15分以上にしてください。"
	case scheduler.KindOutsideBusinessHours:
		return "営業時間外には予定を配置できません。"
	case scheduler.KindTimeConflict:
		return "同じスタッフの予定と重なっています。"
	case scheduler.KindNotFound:
		return "指定されたスタッフが見つかりません。"
	default:
		return localizedStatusMessage(http.StatusUnprocessableEntity)
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "name is required":
		return "名前は必須です。"
	case "color must not be empty":
		return "色を指定してください。"
	case "date must be YYYY-MM-DD":
		return "日付は YYYY-MM-DD 形式で指定してください。"
	case "username is required":
		return "ユーザー名は必須です。"
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode          string            `json:"errorCode,omitempty"`
	Message            string            `json:"message"`
	Field              string            `json:"field,omitempty"`
	ConflictingBlockID string            `json:"conflictingBlockId,omitempty"`
	Errors             map[string]string `json:"errors,omitempty"`
}
