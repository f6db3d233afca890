// Package dispatch runs one task per work item concurrently and joins them
// all, logging each failure without ever aborting the siblings.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/sgaunet/s3-nocheck-resource/pkg/dto"
	"github.com/sgaunet/s3-nocheck-resource/pkg/errs"
)

// Task is the unit of work run for one item.
type Task func(ctx context.Context) error

// Handle resolves once its task has finished, successfully or not.
type Handle struct {
	item string
	done chan struct{}
	err  error
}

// Item returns the name the task was submitted with.
func (h *Handle) Item() string {
	return h.item
}

// Wait blocks until the task finished and returns its outcome.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Group spawns tasks and keeps one handle per task in spawn order.
// Tasks never report to the errgroup, so one failure cancels nothing.
type Group struct {
	eg      errgroup.Group
	handles []*Handle
	log     *slog.Logger
}

// NewGroup creates a group running at most limit tasks at once, or any
// number when limit is 0.
func NewGroup(limit int) *Group {
	g := &Group{log: slog.New(slog.DiscardHandler)}
	if limit > 0 {
		g.eg.SetLimit(limit)
	}
	return g
}

// SetLogger sets the logger
func (g *Group) SetLogger(log *slog.Logger) {
	g.log = log
}

// Submit schedules task for item and returns its handle. It blocks while the
// group is at its concurrency limit.
func (g *Group) Submit(ctx context.Context, item string, task Task) *Handle {
	h := &Handle{item: item, done: make(chan struct{})}
	g.handles = append(g.handles, h)
	g.eg.Go(func() error {
		defer close(h.done)
		defer func() {
			if r := recover(); r != nil {
				h.err = errs.Join("task", item, fmt.Errorf("task panicked: %v", r))
			}
		}()
		h.err = task(ctx)
		return nil
	})
	return h
}

// Handles returns the handles in spawn order.
func (g *Group) Handles() []*Handle {
	return g.handles
}

// Summary counts the outcomes of a joined group. It is informational only.
type Summary struct {
	Attempted int
	Succeeded int
	Failed    int
}

// Join waits for every handle in spawn order and logs each failure. Join
// failures are reported apart from transfer failures.
func (g *Group) Join() Summary {
	s := Summary{Attempted: len(g.handles)}
	for _, h := range g.handles {
		err := h.Wait()
		switch {
		case err == nil:
			s.Succeeded++
			continue
		case errs.IsKind(err, errs.KindJoin):
			g.log.Error("Task did not run to completion", slog.String("item", h.item), slog.String("error", err.Error()))
		default:
			g.log.Error("An error occurred", slog.String("item", h.item), slog.String("error", err.Error()))
		}
		s.Failed++
	}
	_ = g.eg.Wait()
	return s
}

// Run submits one task per item through fn and joins them all.
func Run(ctx context.Context, limit int, log *slog.Logger, items []dto.WorkItem, fn func(context.Context, dto.WorkItem) error) Summary {
	g := NewGroup(limit)
	g.SetLogger(log)
	for _, item := range items {
		g.Submit(ctx, item.Name(), func(ctx context.Context) error {
			return fn(ctx, item)
		})
	}
	log.Info("Will await transfers", slog.Int("count", len(items)))
	return g.Join()
}
