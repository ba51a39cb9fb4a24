package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"eventsift/internal/logging"
)

// ErrNoLogs reports a log directory without any run logs.
var ErrNoLogs = errors.New("no run logs found")

// Latest returns the most recently modified run log in dir.
func Latest(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, logging.RunLogPattern))
	if err != nil {
		return "", fmt.Errorf("list run logs: %w", err)
	}
	var (
		newest  string
		newestT time.Time
	)
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if newest == "" || info.ModTime().After(newestT) {
			newest, newestT = path, info.ModTime()
		}
	}
	if newest == "" {
		return "", fmt.Errorf("%w in %s", ErrNoLogs, dir)
	}
	return newest, nil
}

// TailOptions controls Tail.
type TailOptions struct {
	// Lines is the number of trailing lines printed first; 0 prints none.
	Lines int
	// Follow keeps reading appended data until ctx is done.
	Follow bool
	// Poll is the follow interval. Defaults to 500ms.
	Poll time.Duration
}

// Tail writes the last opts.Lines lines of path to w and, when following,
// streams appended lines until ctx is cancelled.
func Tail(ctx context.Context, path string, w io.Writer, opts TailOptions) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	lines, err := lastLines(file, opts.Lines)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if !opts.Follow {
		return nil
	}

	poll := opts.Poll
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	reader := bufio.NewReader(file)
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	var partial []byte
	for {
		chunk, err := reader.ReadBytes('\n')
		partial = append(partial, chunk...)
		if err == nil {
			if _, werr := w.Write(partial); werr != nil {
				return werr
			}
			partial = partial[:0]
			continue
		}
		if !errors.Is(err, io.EOF) {
			return fmt.Errorf("read log file: %w", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// lastLines returns up to limit trailing lines and leaves file positioned at EOF.
func lastLines(file *os.File, limit int) ([]string, error) {
	if limit <= 0 {
		if _, err := file.Seek(0, io.SeekEnd); err != nil {
			return nil, fmt.Errorf("seek log file: %w", err)
		}
		return nil, nil
	}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	ring := make([]string, 0, limit)
	for scanner.Scan() {
		if len(ring) == limit {
			ring = append(ring[1:], scanner.Text())
			continue
		}
		ring = append(ring, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}
	// The scanner may have buffered past the last full line; reposition at EOF.
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return nil, fmt.Errorf("seek log file: %w", err)
	}
	return ring, nil
}
