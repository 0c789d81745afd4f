package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// 管理者の操作履歴
type AdminAuditUsecase struct {
	tx repo.TransactionManager
}

func NewAdminAuditUsecase(tx repo.TransactionManager) *AdminAuditUsecase {
	return &AdminAuditUsecase{tx: tx}
}

type AuditHistoryInput struct {
	ResourceType string
	ResourceID   int64
	Page         int
	Limit        int
}

type AuditEntryOutput struct {
	ID           int64           `json:"id"`
	ActorUserID  int64           `json:"actor_user_id"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type"`
	ResourceID   int64           `json:"resource_id"`
	Before       json.RawMessage `json:"before,omitempty"`
	After        json.RawMessage `json:"after,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type AuditHistoryOutput struct {
	Items []AuditEntryOutput `json:"items"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

func (u *AdminAuditUsecase) History(ctx context.Context, in AuditHistoryInput) (AuditHistoryOutput, error) {
	if in.Page < 1 {
		return AuditHistoryOutput{}, validationError("invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return AuditHistoryOutput{}, validationError("invalid limit")
	}
	rt := model.AuditResourceType(strings.ToLower(strings.TrimSpace(in.ResourceType)))
	switch rt {
	case "", model.AuditResourceOrder, model.AuditResourceProduct:
	default:
		return AuditHistoryOutput{}, validationError("invalid resource_type")
	}
	if in.ResourceID < 0 {
		return AuditHistoryOutput{}, validationError("invalid resource_id")
	}

	out := AuditHistoryOutput{Items: []AuditEntryOutput{}, Page: in.Page, Limit: in.Limit}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		logs, total, err := r.AuditLogs().History(ctx, repo.AuditHistoryQuery{
			ResourceType: rt,
			ResourceID:   in.ResourceID,
			Page:         in.Page,
			Limit:        in.Limit,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out.Total = total
		for _, l := range logs {
			out.Items = append(out.Items, toAuditEntryOutput(l))
		}
		return nil
	})
	if err != nil {
		return AuditHistoryOutput{}, err
	}
	return out, nil
}

// 保存済みのJSON文字列はそのまま埋め込む（空はnull扱い）
func toAuditEntryOutput(l model.AuditLog) AuditEntryOutput {
	e := AuditEntryOutput{
		ID:           l.ID,
		ActorUserID:  l.ActorUserID,
		Action:       string(l.Action),
		ResourceType: string(l.ResourceType),
		ResourceID:   l.ResourceID,
		CreatedAt:    l.CreatedAt,
	}
	if l.BeforeJSON != "" && json.Valid([]byte(l.BeforeJSON)) {
		e.Before = json.RawMessage(l.BeforeJSON)
	}
	if l.AfterJSON != "" && json.Valid([]byte(l.AfterJSON)) {
		e.After = json.RawMessage(l.AfterJSON)
	}
	return e
}
