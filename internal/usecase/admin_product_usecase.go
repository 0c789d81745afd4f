package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// 管理画面の商品登録・更新・削除・在庫変更
type AdminProductUsecase struct {
	tx       repo.TransactionManager
	currency string
	now      func() time.Time
}

func NewAdminProductUsecase(tx repo.TransactionManager, currency string) *AdminProductUsecase {
	if currency == "" {
		currency = model.DefaultCurrency
	}
	return &AdminProductUsecase{tx: tx, currency: currency, now: time.Now}
}

type AdminProductInput struct {
	Name        string
	Description string
	Price       string
	Stock       int64
	Category    string
	ImageURLs   []string
	IsActive    bool
}

// 監査ログに残す項目
type productAuditView struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int64           `json:"stock"`
	Category string          `json:"category"`
	IsActive bool            `json:"is_active"`
}

func auditView(p model.ProductRecord) productAuditView {
	return productAuditView{Name: p.Name, Price: p.Price, Stock: p.Stock, Category: p.Category, IsActive: p.IsActive}
}

func (in AdminProductInput) toRecord(currency string) (model.ProductRecord, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.ProductRecord{}, validationError("name required")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(in.Price))
	if err != nil {
		return model.ProductRecord{}, validationError("invalid price")
	}
	if price.IsNegative() {
		return model.ProductRecord{}, validationError("price must be >= 0")
	}
	if in.Stock < 0 {
		return model.ProductRecord{}, validationError("stock must be >= 0")
	}
	urls := make(model.StringList, 0, len(in.ImageURLs))
	for _, u := range in.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return model.ProductRecord{
		Name:        name,
		Description: in.Description,
		Price:       price.Round(2),
		Currency:    currency,
		Stock:       in.Stock,
		Category:    strings.TrimSpace(in.Category),
		ImageURLs:   urls,
		IsActive:    in.IsActive,
	}, nil
}

func (u *AdminProductUsecase) Create(ctx context.Context, adminUserID int64, in AdminProductInput) (model.ProductRecord, error) {
	if adminUserID <= 0 {
		return model.ProductRecord{}, unauthorizedError()
	}
	rec, err := in.toRecord(u.currency)
	if err != nil {
		return model.ProductRecord{}, err
	}

	var created model.ProductRecord
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().Create(ctx, rec)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		created = p
		return u.audit(ctx, r, adminUserID, model.AuditActionCreateProduct, p.ID, nil, auditView(p))
	})
	if err != nil {
		return model.ProductRecord{}, err
	}
	return created, nil
}

// 在庫はSetStockで変える（ここでは変えない）
func (u *AdminProductUsecase) Update(ctx context.Context, adminUserID int64, productID int64, in AdminProductInput) error {
	if adminUserID <= 0 {
		return unauthorizedError()
	}
	if productID <= 0 {
		return validationError("invalid product id")
	}
	rec, err := in.toRecord(u.currency)
	if err != nil {
		return err
	}
	rec.ID = productID

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if err == repo.ErrNotFound {
			return notFoundError("not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		rec.Stock = before.Stock

		if err := r.Products().Update(ctx, rec); err != nil {
			if err == repo.ErrNotFound {
				return notFoundError("not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return u.audit(ctx, r, adminUserID, model.AuditActionUpdateProduct, productID, auditView(before), auditView(rec))
	})
}

// 論理削除
func (u *AdminProductUsecase) Delete(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return unauthorizedError()
	}
	if productID <= 0 {
		return validationError("invalid product id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if err == repo.ErrNotFound {
			return notFoundError("not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Products().SoftDelete(ctx, productID); err != nil {
			if err == repo.ErrNotFound {
				return notFoundError("not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return u.audit(ctx, r, adminUserID, model.AuditActionDeleteProduct, productID, auditView(before), nil)
	})
}

// 在庫を現在値に更新し、調整履歴と監査ログを残す
func (u *AdminProductUsecase) SetStock(ctx context.Context, adminUserID int64, productID int64, newStock int64, reason string) error {
	if adminUserID <= 0 {
		return unauthorizedError()
	}
	if productID <= 0 {
		return validationError("invalid product id")
	}
	if newStock < 0 {
		return validationError("stock must be >= 0")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return validationError("reason required")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//変更前の在庫（before）
		p, err := r.Products().FindByID(ctx, productID)
		if err == repo.ErrNotFound {
			return notFoundError("not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.Inventory().SetStockWithAdjustment(ctx, adminUserID, productID, newStock, reason); err != nil {
			if err == repo.ErrNotFound {
				return notFoundError("not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		return u.audit(ctx, r, adminUserID, model.AuditActionUpdateStock, productID,
			map[string]int64{"stock": p.Stock},
			map[string]int64{"stock": newStock},
		)
	})
}

func (u *AdminProductUsecase) audit(ctx context.Context, r repo.TxRepos, actor int64, action model.AuditAction, productID int64, before, after any) error {
	log, err := model.NewAuditLog(actor, action, model.AuditResourceProduct, productID, before, after, u.now())
	if err != nil {
		return internalError(err)
	}
	if err := r.AuditLogs().Create(ctx, log); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
