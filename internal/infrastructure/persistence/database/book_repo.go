package database

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/bookplus/internal/domain/book"
	apperrors "github.com/xiebiao/bookplus/pkg/errors"
)

// bookRepository 图书仓储实现
// 负责领域实体与GORM模型之间的转换,所有方法通过dbFromContext参与事务
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB) book.Repository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	model := toBookModel(b)

	if err := dbFromContext(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "创建图书失败")
	}

	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	b.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	err := dbFromContext(ctx, r.db).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.NewNotFoundError(id)
		}
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询图书失败")
	}
	return toBookEntity(&model), nil
}

// FindByIDs 一次查询解析全部图书
func (r *bookRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]*book.Book, error) {
	result := make(map[uint]*book.Book, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var models []BookModel
	if err := dbFromContext(ctx, r.db).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "批量查询图书失败")
	}
	for i := range models {
		result[models[i].ID] = toBookEntity(&models[i])
	}
	return result, nil
}

// Update 覆盖全部字段,包括把价格/库存置为NULL
func (r *bookRepository) Update(ctx context.Context, b *book.Book) error {
	model := toBookModel(b)

	result := dbFromContext(ctx, r.db).Model(&BookModel{ID: b.ID}).
		Select("*").Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return apperrors.WrapCode(result.Error, apperrors.ErrCodeDatabaseError, "更新图书失败")
	}
	if result.RowsAffected == 0 {
		return book.NewNotFoundError(b.ID)
	}

	b.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete 物理删除,已下订单中的快照不受影响
func (r *bookRepository) Delete(ctx context.Context, id uint) error {
	result := dbFromContext(ctx, r.db).Delete(&BookModel{}, id)
	if result.Error != nil {
		return apperrors.WrapCode(result.Error, apperrors.ErrCodeDatabaseError, "删除图书失败")
	}
	if result.RowsAffected == 0 {
		return book.NewNotFoundError(id)
	}
	return nil
}

func (r *bookRepository) List(ctx context.Context, params book.ListParams) ([]*book.Book, int64, error) {
	var models []BookModel
	var total int64

	query := dbFromContext(ctx, r.db).Model(&BookModel{})

	if params.Keyword != "" {
		kw := likePattern(params.Keyword)
		query = query.Where(
			"title"+likeEscape+" OR author"+likeEscape+" OR publisher"+likeEscape+" OR subject"+likeEscape,
			kw, kw, kw, kw,
		)
	}
	if params.Title != "" {
		query = query.Where("title"+likeEscape, likePattern(params.Title))
	}
	if params.Author != "" {
		query = query.Where("author"+likeEscape, likePattern(params.Author))
	}
	if params.Subject != "" {
		query = query.Where("subject"+likeEscape, likePattern(params.Subject))
	}
	if params.Publisher != "" {
		query = query.Where("publisher"+likeEscape, likePattern(params.Publisher))
	}
	if params.Class != nil {
		query = query.Where("class = ?", *params.Class)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询图书总数失败")
	}

	switch params.SortBy {
	case "serial_asc":
		query = query.Order("class ASC").Order("serial_number ASC").Order("id ASC")
	case "title_asc":
		query = query.Order("title ASC").Order("id ASC")
	case "price_asc":
		query = query.Order("price ASC").Order("id ASC")
	case "price_desc":
		query = query.Order("price DESC").Order("id DESC")
	default:
		query = query.Order("created_at DESC").Order("id DESC")
	}

	if err := paginate(query, params.Page, params.PageSize).Find(&models).Error; err != nil {
		return nil, 0, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询图书列表失败")
	}

	books := make([]*book.Book, len(models))
	for i := range models {
		books[i] = toBookEntity(&models[i])
	}
	return books, total, nil
}

// DecrStock 条件扣减库存
// UPDATE books SET stock = stock - ? WHERE id = ? AND stock IS NOT NULL AND stock >= ?
// 单条语句完成判断与扣减,并发下单不会把库存扣成负数
func (r *bookRepository) DecrStock(ctx context.Context, id uint, quantity int) error {
	db := dbFromContext(ctx, r.db)
	result := db.Model(&BookModel{}).
		Where("id = ? AND stock IS NOT NULL AND stock >= ?", id, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return apperrors.WrapCode(result.Error, apperrors.ErrCodeDatabaseError, "扣减库存失败")
	}
	if result.RowsAffected == 1 {
		return nil
	}

	// 没有更新到行:图书不存在、不跟踪库存或库存不足,再查一次确定原因
	var model BookModel
	if err := db.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return book.NewNotFoundError(id)
		}
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询图书失败")
	}
	if model.Stock == nil {
		return nil
	}
	return book.NewInsufficientStockError(toBookEntity(&model), quantity)
}

func toBookModel(b *book.Book) *BookModel {
	return &BookModel{
		ID:           b.ID,
		SerialNumber: b.SerialNumber,
		Class:        b.Class,
		Subject:      b.Subject,
		Title:        b.Title,
		Author:       b.Author,
		Publisher:    b.Publisher,
		Section:      b.Section,
		Remarks:      b.Remarks,
		AcademicYear: b.AcademicYear,
		Description:  b.Description,
		CoverImage:   b.CoverImage,
		Price:        b.Price,
		Stock:        b.Stock,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func toBookEntity(model *BookModel) *book.Book {
	return &book.Book{
		ID:           model.ID,
		SerialNumber: model.SerialNumber,
		Class:        model.Class,
		Subject:      model.Subject,
		Title:        model.Title,
		Author:       model.Author,
		Publisher:    model.Publisher,
		Section:      model.Section,
		Remarks:      model.Remarks,
		AcademicYear: model.AcademicYear,
		Description:  model.Description,
		CoverImage:   model.CoverImage,
		Price:        model.Price,
		Stock:        model.Stock,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}
