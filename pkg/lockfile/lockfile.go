// Package lockfile guards an output archive against concurrent repack runs.
//
// A lock is a small JSON file next to the archive it protects. It is created
// with O_EXCL and refreshed by a heartbeat while the run is alive, so a lock
// left behind by a crashed process goes stale and can be taken over.
package lockfile

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/paulschiretz/pgl-modpack/pkg/plog"
	"github.com/paulschiretz/pgl-modpack/pkg/util"
)

// Suffix is appended to the target's base name, with a ".~" prefix so the
// lock sorts as a hidden temporary file.
const Suffix = ".lock"

// Owner is the content of a lock file.
type Owner struct {
	PID       int64     `json:"pid"`
	Hostname  string    `json:"hostname"`
	Source    string    `json:"source"`
	Heartbeat time.Time `json:"heartbeat"`
	Token     string    `json:"token"`
}

// ErrLocked is returned when another live run holds the lock.
type ErrLocked struct {
	Path  string
	Owner Owner
	Age   time.Duration
}

func (e *ErrLocked) Error() string {
	return fmt.Sprintf("%s is being written by PID %d on %s (source %s, last seen %s ago)",
		e.Path, e.Owner.PID, e.Owner.Hostname, e.Owner.Source, e.Age.Truncate(time.Second))
}

var (
	errTakeoverLost = errors.New("another process took over the stale lock first")
	errUnreadable   = errors.New("lock file is empty or not valid json")
)

// Variables so tests can shorten them.
var (
	heartbeatInterval = 30 * time.Second
	staleAfter        = 3 * heartbeatInterval
)

// Lock is a held lock. Release it when the run is over.
type Lock struct {
	path  string
	owner Owner

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// PathFor returns the lock file path guarding target.
func PathFor(target string) string {
	return filepath.Join(filepath.Dir(target), ".~"+filepath.Base(target)+Suffix)
}

// Acquire locks target for the current process. source is recorded so a
// blocked run can tell the user who holds the lock. It returns *ErrLocked
// when a live run already holds it.
func Acquire(ctx context.Context, target, source string) (*Lock, error) {
	path := PathFor(target)

	for attempt := 0; attempt < 3; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		owner, err := newOwner(source)
		if err != nil {
			return nil, err
		}

		err = create(path, owner)
		if err == nil {
			return start(path, owner), nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed creating lock file %s: %w", path, err)
		}

		held, readErr := readSettled(path)
		switch {
		case errors.Is(readErr, os.ErrNotExist):
			// Released between our create and read.
			continue
		case errors.Is(readErr, errUnreadable):
			plog.Warn("Lock file is unreadable, taking it over", "path", path)
		case readErr != nil:
			return nil, fmt.Errorf("failed reading lock file %s: %w", path, readErr)
		default:
			age := time.Since(held.Heartbeat)
			if age < staleAfter {
				return nil, &ErrLocked{Path: target, Owner: held, Age: age}
			}
			plog.Warn("Lock is stale, taking it over", "path", path, "pid", held.PID, "age", age.Truncate(time.Second))
		}

		if err := takeover(path, owner); err != nil {
			plog.Debug("Lock takeover failed, retrying", "path", path, "error", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}
		return start(path, owner), nil
	}
	return nil, fmt.Errorf("failed acquiring lock file %s: too much contention", path)
}

// Release stops the heartbeat and removes the lock file. It is safe to call
// more than once.
func (l *Lock) Release() {
	l.once.Do(func() {
		close(l.stop)
		<-l.done

		// Never remove a lock somebody else took over.
		if cur, err := read(l.path); err == nil && cur.Token != l.owner.Token {
			plog.Warn("Lock was taken over by another process", "path", l.path, "pid", cur.PID)
			return
		}
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			plog.Warn("Failed removing lock file", "path", l.path, "error", err)
			return
		}
		plog.Debug("Lock released", "path", l.path)
	})
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

func newOwner(source string) (Owner, error) {
	host, err := os.Hostname()
	if err != nil {
		return Owner{}, fmt.Errorf("failed reading hostname: %w", err)
	}
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return Owner{}, fmt.Errorf("failed generating lock token: %w", err)
	}
	return Owner{
		PID:       int64(os.Getpid()),
		Hostname:  host,
		Source:    source,
		Heartbeat: time.Now().UTC(),
		Token:     hex.EncodeToString(b),
	}, nil
}

func start(path string, owner Owner) *Lock {
	l := &Lock{
		path:  path,
		owner: owner,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go l.heartbeat()
	plog.Debug("Lock acquired", "path", path)
	return l
}

func (l *Lock) heartbeat() {
	defer close(l.done)
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.owner.Heartbeat = time.Now().UTC()
			if err := replace(l.path, l.owner); err != nil {
				plog.Warn("Failed refreshing lock file", "path", l.path, "error", err)
			}
		}
	}
}

// create writes a new lock file, failing with an os.ErrExist error if one is
// already present.
func create(path string, owner Owner) (retErr error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, util.UserWritableFilePerms)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && retErr == nil {
			retErr = cErr
		}
		if retErr != nil {
			os.Remove(path)
		}
	}()
	return json.NewEncoder(f).Encode(owner)
}

// takeover overwrites a stale lock and checks that our token survived any
// competing takeover.
func takeover(path string, owner Owner) error {
	if err := replace(path, owner); err != nil {
		return err
	}
	cur, err := read(path)
	if err != nil {
		return err
	}
	if cur.Token != owner.Token {
		return errTakeoverLost
	}
	return nil
}

// replace atomically swaps the lock content through a temp file.
func replace(path string, owner Owner) (retErr error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := json.NewEncoder(tmp).Encode(owner); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// readSettled retries unreadable content for a moment, since a lock that was
// just created with O_EXCL is empty until its owner writes it.
func readSettled(path string) (Owner, error) {
	var owner Owner
	var err error
	for range 3 {
		owner, err = read(path)
		if !errors.Is(err, errUnreadable) {
			return owner, err
		}
		time.Sleep(50 * time.Millisecond)
	}
	return owner, err
}

func read(path string) (Owner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Owner{}, err
	}
	var owner Owner
	if len(data) == 0 || json.Unmarshal(data, &owner) != nil || owner.Token == "" {
		return Owner{}, errUnreadable
	}
	return owner, nil
}
