package app

import (
	"context"

	"key-decoder/internal/log"

	"golang.org/x/sync/errgroup"
)

// LoadImage loads the photo at path and makes it current. If another
// LoadImage or SetPhoto started after this one, the result is discarded and
// ErrStaleLoad is returned.
func (s *State) LoadImage(ctx context.Context, path string) error {
	s.mu.Lock()
	s.imageReq++
	id := s.imageReq
	load := s.loadPhoto
	s.mu.Unlock()

	photo, err := load(ctx, path)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		log.Errorf("Failed to load image %s: %v", path, err)
		return err
	}

	display := displayImage(photo)

	s.mu.Lock()
	if id != s.imageReq {
		s.mu.Unlock()
		log.Debugf("Discarding stale image load %d (%s)", id, path)
		return ErrStaleLoad
	}
	s.photo = photo
	s.display = display
	s.mode = ModeNone
	s.mu.Unlock()

	log.Printf("Loaded image %s (%dx%d)", path, photo.Width(), photo.Height())
	s.Emit(EventImageLoaded, photo)
	s.emitAll()
	return nil
}

// LoadDatabase fetches a key database from a file path or URL ("" for the
// built-in database) and makes it current. On failure the current database
// is kept and the error returned. Superseded loads return ErrStaleLoad.
func (s *State) LoadDatabase(ctx context.Context, source string) error {
	s.mu.Lock()
	s.dbReq++
	id := s.dbReq
	fetch := s.fetchDB
	s.mu.Unlock()

	db, err := fetch(ctx, source)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		log.Errorf("Failed to load key database: %v", err)
		return err
	}
	if problems := db.Validate(); len(problems) > 0 {
		log.Printf("Key database %q has %d invalid entries", source, len(problems))
		for _, p := range problems {
			log.Debugf("  entry %d: %v", p.Index, p.Err)
		}
	}

	s.mu.Lock()
	if id != s.dbReq {
		s.mu.Unlock()
		log.Debugf("Discarding stale database load %d (%q)", id, source)
		return ErrStaleLoad
	}
	s.dbSrc = source
	s.setDatabaseLocked(db)
	s.mu.Unlock()

	log.Printf("Loaded key database %q: %d entries", source, db.Len())
	s.emitDatabaseLoaded(db)
	return nil
}

// LoadAll loads the database and, when imagePath is set, the photo
// concurrently. The first error cancels the other load.
func (s *State) LoadAll(ctx context.Context, dbSource, imagePath string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.LoadDatabase(ctx, dbSource)
	})
	if imagePath != "" {
		g.Go(func() error {
			return s.LoadImage(ctx, imagePath)
		})
	}
	return g.Wait()
}
