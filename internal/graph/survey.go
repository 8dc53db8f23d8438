package graph

import (
	"context"
	"errors"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// SurveyOptions defines parameters for UnguaranteedZones.
type SurveyOptions struct {
	NumberOfWorkers int
}

// SurveyOption is a function that modifies SurveyOptions.
type SurveyOption func(*SurveyOptions)

// WithSurveyWorkers specifies how many searches may run at the same time.
func WithSurveyWorkers(numberOfWorkers int) SurveyOption {
	return func(options *SurveyOptions) { options.NumberOfWorkers = numberOfWorkers }
}

// UnguaranteedZones returns, sorted by name, every station that OptimalPath cannot reach
// from origin with the given range.
func (g *Graph) UnguaranteedZones(ctx context.Context, origin string, rangeKm float64, options ...SurveyOption) ([]string, error) {
	surveyOptions := SurveyOptions{
		NumberOfWorkers: runtime.NumCPU(),
	}
	for _, option := range options {
		option(&surveyOptions)
	}
	if surveyOptions.NumberOfWorkers < 1 {
		surveyOptions.NumberOfWorkers = 1
	}

	if _, err := g.lookup(origin); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	unreachable := make([]string, 0)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(surveyOptions.NumberOfWorkers)

	for _, s := range g.stations {
		if s.Name == origin {
			continue
		}
		if groupCtx.Err() != nil {
			break
		}

		name := s.Name
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			_, err := g.OptimalPath(origin, name, rangeKm)
			switch {
			case err == nil:
				return nil
			case errors.Is(err, ErrUnreachablePath):
				mu.Lock()
				unreachable = append(unreachable, name)
				mu.Unlock()
				return nil
			default:
				return err
			}
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Strings(unreachable)
	return unreachable, nil
}
