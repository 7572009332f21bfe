// internal/store/store.go

// Package store persists movies and actors with gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"castingagency/internal/domain"
	"castingagency/internal/observability/logging"
	"castingagency/internal/observability/metrics"
)

// Repository defines the persistence operations of the API
type Repository interface {
	// ListMovies returns all movies ordered by id
	ListMovies(ctx context.Context) ([]domain.Movie, error)
	// GetMovie returns one movie. Returns domain.ErrNotFound for an unknown id.
	GetMovie(ctx context.Context, id int64) (*domain.Movie, error)
	// CreateMovie stores a new movie. Unknown actor ids are ignored.
	CreateMovie(ctx context.Context, changes domain.MovieChanges) (*domain.Movie, error)
	// UpdateMovie changes a movie. Returns domain.ErrNotFound for an unknown id.
	UpdateMovie(ctx context.Context, id int64, changes domain.MovieChanges) (*domain.Movie, error)
	// DeleteMovie removes a movie and its cast links
	DeleteMovie(ctx context.Context, id int64) error

	// ListActors returns all actors ordered by id
	ListActors(ctx context.Context) ([]domain.Actor, error)
	// GetActor returns one actor. Returns domain.ErrNotFound for an unknown id.
	GetActor(ctx context.Context, id int64) (*domain.Actor, error)
	// CreateActor stores a new actor
	CreateActor(ctx context.Context, changes domain.ActorChanges) (*domain.Actor, error)
	// UpdateActor changes an actor. Returns domain.ErrNotFound for an unknown id.
	UpdateActor(ctx context.Context, id int64, changes domain.ActorChanges) (*domain.Actor, error)
	// DeleteActor removes an actor and its movie links
	DeleteActor(ctx context.Context, id int64) error

	// Close releases the database connection
	Close() error
}

// Config holds database settings
type Config struct {
	// Driver is postgres or sqlite
	Driver string
	// DSN is the connection string, or the file path for sqlite
	DSN string
	// AutoMigrate creates or updates the schema on open
	AutoMigrate bool
}

// GormRepository implements Repository
type GormRepository struct {
	db      *gorm.DB
	logger  *logging.Logger
	metrics *metrics.Collector
}

// Open connects to the database and optionally migrates the schema
func Open(cfg Config, logger *logging.Logger, collector *metrics.Collector) (*GormRepository, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.WithModule("store")

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(sqliteDSN(cfg.DSN))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	level := gormlogger.Warn
	if logging.IsDebugEnabled() {
		level = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}
	logger.Info("Connected to database", "driver", cfg.Driver, "dsn", logging.RedactDSN(cfg.DSN))

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(&Movie{}, &Actor{}); err != nil {
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	return &GormRepository{db: db, logger: logger, metrics: collector}, nil
}

// sqliteDSN enables foreign keys so join rows cannot dangle
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=1"
}

// Close implements Repository
func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the database connection
func (r *GormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *GormRepository) observe(op string, start time.Time, err error) {
	r.metrics.RecordStoreOperation(op, err == nil || errors.Is(err, domain.ErrNotFound), time.Since(start))
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Join(domain.ErrNotFound, err)
	}
	return err
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

// ListMovies implements Repository
func (r *GormRepository) ListMovies(ctx context.Context) (movies []domain.Movie, err error) {
	defer func(start time.Time) { r.observe("list_movies", start, err) }(time.Now())

	var rows []Movie
	if err := r.db.WithContext(ctx).Preload("Actors", orderByID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}

	movies = make([]domain.Movie, 0, len(rows))
	for _, m := range rows {
		movies = append(movies, m.toDomain())
	}
	return movies, nil
}

// GetMovie implements Repository
func (r *GormRepository) GetMovie(ctx context.Context, id int64) (movie *domain.Movie, err error) {
	defer func(start time.Time) { r.observe("get_movie", start, err) }(time.Now())

	var row Movie
	if err := r.db.WithContext(ctx).Preload("Actors", orderByID).First(&row, id).Error; err != nil {
		return nil, notFound(err)
	}
	out := row.toDomain()
	return &out, nil
}

// CreateMovie implements Repository
func (r *GormRepository) CreateMovie(ctx context.Context, changes domain.MovieChanges) (movie *domain.Movie, err error) {
	defer func(start time.Time) { r.observe("create_movie", start, err) }(time.Now())

	var row Movie
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actors, err := findActors(tx, changes.ActorIDs)
		if err != nil {
			return err
		}
		row = Movie{
			Title:       changes.Title,
			ReleaseDate: dateValue(changes.ReleaseDate),
			Actors:      actors,
		}
		if err := tx.Omit("Actors.*").Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create movie: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := row.toDomain()
	return &out, nil
}

// UpdateMovie implements Repository
func (r *GormRepository) UpdateMovie(ctx context.Context, id int64, changes domain.MovieChanges) (movie *domain.Movie, err error) {
	defer func(start time.Time) { r.observe("update_movie", start, err) }(time.Now())

	var row Movie
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, id).Error; err != nil {
			return notFound(err)
		}

		updates := map[string]interface{}{"title": changes.Title}
		if changes.ReleaseDate != nil {
			updates["release_date"] = dateValue(changes.ReleaseDate)
		}
		if err := tx.Model(&row).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update movie %d: %w", id, err)
		}

		if changes.SetActors {
			actors, err := findActors(tx, changes.ActorIDs)
			if err != nil {
				return err
			}
			assoc := tx.Model(&row).Association("Actors")
			if len(actors) == 0 {
				err = assoc.Clear()
			} else {
				err = assoc.Replace(actors)
			}
			if err != nil {
				return fmt.Errorf("failed to update cast of movie %d: %w", id, err)
			}
		}

		return tx.Preload("Actors", orderByID).First(&row, id).Error
	})
	if err != nil {
		return nil, err
	}

	out := row.toDomain()
	return &out, nil
}

// DeleteMovie implements Repository
func (r *GormRepository) DeleteMovie(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { r.observe("delete_movie", start, err) }(time.Now())

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Movie
		if err := tx.First(&row, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Select("Actors").Delete(&row).Error; err != nil {
			return fmt.Errorf("failed to delete movie %d: %w", id, err)
		}
		return nil
	})
}

// ListActors implements Repository
func (r *GormRepository) ListActors(ctx context.Context) (actors []domain.Actor, err error) {
	defer func(start time.Time) { r.observe("list_actors", start, err) }(time.Now())

	var rows []Actor
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list actors: %w", err)
	}

	actors = make([]domain.Actor, 0, len(rows))
	for _, a := range rows {
		actors = append(actors, a.toDomain())
	}
	return actors, nil
}

// GetActor implements Repository
func (r *GormRepository) GetActor(ctx context.Context, id int64) (actor *domain.Actor, err error) {
	defer func(start time.Time) { r.observe("get_actor", start, err) }(time.Now())

	var row Actor
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, notFound(err)
	}
	out := row.toDomain()
	return &out, nil
}

// CreateActor implements Repository
func (r *GormRepository) CreateActor(ctx context.Context, changes domain.ActorChanges) (actor *domain.Actor, err error) {
	defer func(start time.Time) { r.observe("create_actor", start, err) }(time.Now())

	row := Actor{Name: changes.Name, Age: changes.Age, Gender: changes.Gender}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to create actor: %w", err)
	}

	out := row.toDomain()
	return &out, nil
}

// UpdateActor implements Repository
func (r *GormRepository) UpdateActor(ctx context.Context, id int64, changes domain.ActorChanges) (actor *domain.Actor, err error) {
	defer func(start time.Time) { r.observe("update_actor", start, err) }(time.Now())

	var row Actor
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, id).Error; err != nil {
			return notFound(err)
		}
		updates := map[string]interface{}{
			"name":   changes.Name,
			"age":    changes.Age,
			"gender": changes.Gender,
		}
		if err := tx.Model(&row).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update actor %d: %w", id, err)
		}
		return tx.First(&row, id).Error
	})
	if err != nil {
		return nil, err
	}

	out := row.toDomain()
	return &out, nil
}

// DeleteActor implements Repository
func (r *GormRepository) DeleteActor(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { r.observe("delete_actor", start, err) }(time.Now())

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Actor
		if err := tx.First(&row, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Select("Movies").Delete(&row).Error; err != nil {
			return fmt.Errorf("failed to delete actor %d: %w", id, err)
		}
		return nil
	})
}

func findActors(tx *gorm.DB, ids []int64) ([]Actor, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var actors []Actor
	if err := tx.Where("id IN ?", ids).Order("id").Find(&actors).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve actors: %w", err)
	}
	return actors, nil
}
