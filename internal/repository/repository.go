package repository

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"gorm.io/gorm"

	"github.com/Tomlord1122/todo-api/internal/domain"
)

// Entity is implemented by every persisted type. Identity returns the
// store-assigned primary key, zero before the entity is added.
type Entity interface {
	Identity() int
}

// Predicate narrows a query. It is applied to the GORM statement, so any
// Where/Or/Not chain can be expressed.
type Predicate func(*gorm.DB) *gorm.DB

// Where builds a Predicate from a GORM condition.
func Where(query any, args ...any) Predicate {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	}
}

// Repository is the generic data-access contract. Mutations are staged on the
// unit of work and only become durable after SaveChanges.
type Repository[T Entity] interface {
	// GetAll yields every entity in the store's natural order. Each range over
	// the sequence issues a fresh query.
	GetAll(ctx context.Context) iter.Seq2[*T, error]
	// GetByID returns nil and no error when the id does not exist.
	GetByID(ctx context.Context, id int) (*T, error)
	Find(ctx context.Context, pred Predicate) iter.Seq2[*T, error]
	Count(ctx context.Context, pred Predicate) (int, error)
	Add(ctx context.Context, entity *T) (*T, error)
	Update(ctx context.Context, entity *T) (*T, error)
	// DeleteByID returns false without error when the id does not exist.
	DeleteByID(ctx context.Context, id int) (bool, error)
	Delete(ctx context.Context, entity *T) (bool, error)
	SaveChanges(ctx context.Context) error
}

// UnitOfWork groups staged writes into one database transaction. The
// transaction is opened by the first staged write and closed by SaveChanges.
// A UnitOfWork must not be shared between concurrent requests.
type UnitOfWork struct {
	db  *gorm.DB
	tx  *gorm.DB
	err error
	log *slog.Logger
}

func NewUnitOfWork(db *gorm.DB, log *slog.Logger) *UnitOfWork {
	if log == nil {
		log = slog.Default()
	}
	return &UnitOfWork{db: db, log: log}
}

// conn returns the open transaction if any, so reads observe staged writes.
func (u *UnitOfWork) conn(ctx context.Context) *gorm.DB {
	if u.tx != nil {
		return u.tx.WithContext(ctx)
	}
	return u.db.WithContext(ctx)
}

// stage runs fn inside the unit's transaction. The first failure is kept and
// reported by SaveChanges; later stages are skipped.
func (u *UnitOfWork) stage(ctx context.Context, op string, fn func(tx *gorm.DB) error) {
	if u.err != nil {
		return
	}
	if u.tx == nil {
		tx := u.db.WithContext(ctx).Begin()
		if tx.Error != nil {
			u.err = domain.NewPersistenceError("begin", tx.Error)
			return
		}
		u.tx = tx
	}
	if err := fn(u.tx.WithContext(ctx)); err != nil {
		u.err = domain.NewPersistenceError(op, err)
	}
}

// Pending reports whether there are staged writes awaiting SaveChanges.
func (u *UnitOfWork) Pending() bool {
	return u.tx != nil || u.err != nil
}

// SaveChanges commits every staged write atomically. On failure the
// transaction is rolled back and a *domain.PersistenceError is returned.
func (u *UnitOfWork) SaveChanges(ctx context.Context) error {
	tx, stageErr := u.tx, u.err
	u.tx, u.err = nil, nil

	if stageErr != nil {
		if tx != nil {
			if err := tx.Rollback().Error; err != nil {
				u.log.WarnContext(ctx, "rollback failed", "error", err)
			}
		}
		return stageErr
	}
	if tx == nil {
		return nil
	}
	if err := tx.Commit().Error; err != nil {
		_ = tx.Rollback()
		return domain.NewPersistenceError("commit", err)
	}
	return nil
}

// GormRepository implements Repository over GORM.
type GormRepository[T Entity] struct {
	uow *UnitOfWork
	log *slog.Logger
}

func NewGormRepository[T Entity](uow *UnitOfWork) *GormRepository[T] {
	return &GormRepository[T]{uow: uow, log: uow.log}
}

func (r *GormRepository[T]) GetAll(ctx context.Context) iter.Seq2[*T, error] {
	return r.stream(ctx, nil)
}

func (r *GormRepository[T]) GetByID(ctx context.Context, id int) (*T, error) {
	entity := new(T)
	err := r.uow.conn(ctx).Take(entity, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewPersistenceError("get by id", err)
	}
	return entity, nil
}

func (r *GormRepository[T]) Find(ctx context.Context, pred Predicate) iter.Seq2[*T, error] {
	return r.stream(ctx, pred)
}

func (r *GormRepository[T]) Count(ctx context.Context, pred Predicate) (int, error) {
	var n int64
	q := r.uow.conn(ctx).Model(new(T))
	if pred != nil {
		q = pred(q)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, domain.NewPersistenceError("count", err)
	}
	return int(n), nil
}

// Add stages an insert. The identity is assigned once the insert has run inside
// the pending transaction; the row is durable only after SaveChanges.
func (r *GormRepository[T]) Add(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, fmt.Errorf("%w: entity is nil", domain.ErrInvalidArgument)
	}
	r.log.DebugContext(ctx, "staging insert", "entity", fmt.Sprintf("%T", entity))
	r.uow.stage(ctx, "insert", func(tx *gorm.DB) error {
		return tx.Create(entity).Error
	})
	return entity, nil
}

func (r *GormRepository[T]) Update(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, fmt.Errorf("%w: entity is nil", domain.ErrInvalidArgument)
	}
	r.log.DebugContext(ctx, "staging update", "entity", fmt.Sprintf("%T", entity), "id", (*entity).Identity())
	// Select("*") writes zero values too; unlike Save it never falls back to an
	// insert when the row has vanished.
	r.uow.stage(ctx, "update", func(tx *gorm.DB) error {
		return tx.Model(entity).Select("*").Updates(entity).Error
	})
	return entity, nil
}

func (r *GormRepository[T]) DeleteByID(ctx context.Context, id int) (bool, error) {
	entity, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if entity == nil {
		return false, nil
	}
	return r.Delete(ctx, entity)
}

// Delete stages removal by primary key. GORM keeps no identity map, so a
// detached entity is addressed by its identity directly; one without an
// identity cannot be attached and is reported as not deleted.
func (r *GormRepository[T]) Delete(ctx context.Context, entity *T) (bool, error) {
	if entity == nil || (*entity).Identity() <= 0 {
		return false, nil
	}
	r.log.DebugContext(ctx, "staging delete", "entity", fmt.Sprintf("%T", entity), "id", (*entity).Identity())
	r.uow.stage(ctx, "delete", func(tx *gorm.DB) error {
		return tx.Delete(entity).Error
	})
	return true, nil
}

func (r *GormRepository[T]) SaveChanges(ctx context.Context) error {
	return r.uow.SaveChanges(ctx)
}

func (r *GormRepository[T]) stream(ctx context.Context, pred Predicate) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		db := r.uow.conn(ctx)
		q := db.Model(new(T))
		if pred != nil {
			q = pred(q)
		}
		rows, err := q.Rows()
		if err != nil {
			yield(nil, domain.NewPersistenceError("query", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			entity := new(T)
			if err := db.ScanRows(rows, entity); err != nil {
				yield(nil, domain.NewPersistenceError("scan", err))
				return
			}
			if !yield(entity, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, domain.NewPersistenceError("query", err))
		}
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[*T, error]) ([]T, error) {
	var out []T
	for item, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, nil
}
