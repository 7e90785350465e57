package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/library/internal/domain/book"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// bookRepository 图书仓储实现(MySQL)
// 设计说明:
// 1. 实现domain/book/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 处理数据库特定的错误(如ISBN重复),转换为业务错误
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB) book.Repository {
	return &bookRepository{db: db}
}

// Create 创建图书
func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	model := &BookModel{
		Title:         b.Title,
		Author:        b.Author,
		ISBN:          b.ISBN,
		PublishedYear: b.PublishedYear,
		Description:   b.Description,
		CoverURL:      b.CoverURL,
		TotalCopies:   b.TotalCopies,
	}

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return book.ErrISBNDuplicate
		}
		return apperrors.Wrap(err, "failed to create book")
	}

	// 回填自增ID
	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	b.UpdatedAt = model.UpdatedAt

	return nil
}

// FindByID 根据ID查找图书
// 注意:已下架图书(-1)也能查到,可借性判断交给领域实体
func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	err := getDB(ctx, r.db).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.Wrap(err, "failed to query book")
	}

	return toBookEntity(&model), nil
}

// Update 更新图书信息
func (r *bookRepository) Update(ctx context.Context, b *book.Book) error {
	model := &BookModel{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		ISBN:          b.ISBN,
		PublishedYear: b.PublishedYear,
		Description:   b.Description,
		CoverURL:      b.CoverURL,
		TotalCopies:   b.TotalCopies,
		CreatedAt:     b.CreatedAt,
	}

	if err := getDB(ctx, r.db).Save(model).Error; err != nil {
		if isDuplicateError(err) {
			return book.ErrISBNDuplicate
		}
		return apperrors.Wrap(err, "failed to update book")
	}

	b.UpdatedAt = model.UpdatedAt
	return nil
}

// SoftDelete 下架图书(total_copies置为-1)
// 教学要点:不用gorm.DeletedAt——历史借阅记录的JOIN仍需要命中该行
func (r *bookRepository) SoftDelete(ctx context.Context, id uint) error {
	result := getDB(ctx, r.db).Model(&BookModel{}).
		Where("id = ?", id).
		Update("total_copies", book.CopiesSoftDeleted)

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "failed to delete book")
	}

	if result.RowsAffected == 0 {
		return book.ErrBookNotFound
	}

	return nil
}

// List 分页查询图书列表
func (r *bookRepository) List(ctx context.Context, params book.ListParams) ([]*book.Book, int64, error) {
	var models []BookModel
	var total int64

	query := getDB(ctx, r.db).Model(&BookModel{})

	// 默认排除已下架图书
	if !params.IncludeDeleted {
		query = query.Where("total_copies >= 0")
	}

	// 关键词搜索(搜索标题、作者、ISBN)
	if params.Keyword != "" {
		keyword := "%" + params.Keyword + "%"
		query = query.Where("title LIKE ? OR author LIKE ? OR isbn LIKE ?", keyword, keyword, keyword)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "failed to count books")
	}

	switch params.SortBy {
	case "title_asc":
		query = query.Order("title ASC")
	case "year_desc":
		query = query.Order("published_year DESC")
	case "created_at_desc":
		query = query.Order("created_at DESC")
	default:
		query = query.Order("created_at DESC")
	}

	offset := (params.Page - 1) * params.PageSize
	query = query.Limit(params.PageSize).Offset(offset)

	if err := query.Find(&models).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "failed to list books")
	}

	books := make([]*book.Book, len(models))
	for i := range models {
		books[i] = toBookEntity(&models[i])
	}

	return books, total, nil
}

// LockByID 悲观锁查询图书(借书事务用)
// 教学要点:SELECT FOR UPDATE锁定行,事务提交前其他借书请求在此阻塞,
// 必须通过getDB(ctx)参与当前事务,否则锁不在同一个事务里等于没锁
func (r *bookRepository) LockByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.Wrap(err, "failed to lock book")
	}

	return toBookEntity(&model), nil
}

// AdjustCopies 调整可借副本数(原子操作)
// UPDATE books SET total_copies = total_copies + delta
// WHERE id = ? AND total_copies + delta >= 0
// 教学要点:WHERE条件里的余量检查与UPDATE是同一条语句,天然原子,
// RowsAffected=0说明图书不存在或副本不足,再查一次区分原因
func (r *bookRepository) AdjustCopies(ctx context.Context, id uint, delta int) error {
	db := getDB(ctx, r.db)
	result := db.Model(&BookModel{}).
		Where("id = ?", id).
		Where("total_copies + ? >= 0", delta).
		Update("total_copies", gorm.Expr("total_copies + ?", delta))

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "failed to adjust copies")
	}

	if result.RowsAffected == 0 {
		var model BookModel
		if err := db.First(&model, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return book.ErrBookNotFound
			}
			return apperrors.Wrap(err, "failed to query book")
		}
		if model.TotalCopies == book.CopiesSoftDeleted {
			return book.ErrBookUnavailable
		}
		return book.ErrNoCopiesAvailable
	}

	return nil
}

// toBookEntity GORM模型 → 领域实体
func toBookEntity(model *BookModel) *book.Book {
	return &book.Book{
		ID:            model.ID,
		Title:         model.Title,
		Author:        model.Author,
		ISBN:          model.ISBN,
		PublishedYear: model.PublishedYear,
		Description:   model.Description,
		CoverURL:      model.CoverURL,
		TotalCopies:   model.TotalCopies,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}
