package book

import (
	"context"
	"strings"
	"time"
)

// Service 图书领域服务
type Service interface {
	// CreateBook 新增图书,缺省学年使用配置的默认学年
	CreateBook(ctx context.Context, b *Book) (*Book, error)

	GetBook(ctx context.Context, id uint) (*Book, error)

	// UpdateBook 部分更新
	UpdateBook(ctx context.Context, id uint, patch Patch) (*Book, error)

	DeleteBook(ctx context.Context, id uint) error

	ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error)
}

type service struct {
	repo                Repository
	defaultAcademicYear string
}

// NewService 创建图书领域服务
func NewService(repo Repository, defaultAcademicYear string) Service {
	return &service{repo: repo, defaultAcademicYear: defaultAcademicYear}
}

func (s *service) CreateBook(ctx context.Context, b *Book) (*Book, error) {
	b.Title = strings.TrimSpace(b.Title)
	if strings.TrimSpace(b.AcademicYear) == "" {
		b.AcademicYear = s.defaultAcademicYear
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) GetBook(ctx context.Context, id uint) (*Book, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) UpdateBook(ctx context.Context, id uint, patch Patch) (*Book, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := b.Apply(patch); err != nil {
		return nil, err
	}
	if b.AcademicYear == "" {
		b.AcademicYear = s.defaultAcademicYear
	}

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) DeleteBook(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error) {
	return s.repo.List(ctx, params)
}
