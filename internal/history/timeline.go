package history

import (
	"fmt"
	"sort"
	"time"

	"onestopradio/internal/models"
)

const (
	// DefaultTimelinePoints controls how many buckets we generate per service.
	DefaultTimelinePoints = 80
	maxDetailsPerPoint    = 4
)

// Timeline bucket class names consumed by the dashboard strip.
const (
	classSuccess = "state-success"
	classWarning = "state-warning"
	classError   = "state-error"
	classUnknown = "state-unknown"
)

type sample struct {
	Timestamp time.Time
	Status    string
	Error     string
}

// BuildServiceTimelines converts a history series into compact per-service
// timelines over [start, end), one bucket per point. A bucket takes the worst
// status observed inside it: error/offline beats checking beats online.
func BuildServiceTimelines(
	entries []models.StatusEntry,
	targets []models.Target,
	start, end time.Time,
	points int,
) []models.ServiceTimeline {
	if points <= 0 {
		points = DefaultTimelinePoints
	}
	if !end.After(start) {
		end = start.Add(time.Minute)
	}

	names := make(map[string]string)
	order := make(map[string]int)
	for idx, target := range targets {
		if target.ID == "" {
			continue
		}
		names[target.ID] = target.Name
		order[target.ID] = idx
	}

	samples := make(map[string][]sample)
	for _, entry := range entries {
		for _, check := range entry.Checks {
			if check.ID == "" {
				continue
			}
			if _, ok := names[check.ID]; !ok {
				names[check.ID] = check.Name
			}
			samples[check.ID] = append(samples[check.ID], sample{
				Timestamp: entry.Timestamp,
				Status:    check.Status,
				Error:     check.Error,
			})
		}
	}
	if len(samples) == 0 {
		return nil
	}

	ids := make([]string, 0, len(samples))
	for id := range samples {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		oi, iok := order[ids[i]]
		oj, jok := order[ids[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok:
			return true
		case jok:
			return false
		default:
			return ids[i] < ids[j]
		}
	})

	bucket := end.Sub(start) / time.Duration(points)
	timelines := make([]models.ServiceTimeline, 0, len(ids))
	for _, id := range ids {
		name := names[id]
		if name == "" {
			name = id
		}
		timelines = append(timelines, models.ServiceTimeline{
			ServiceID:   id,
			ServiceName: name,
			Timeline:    buildTimeline(samples[id], start, bucket, points),
		})
	}
	return timelines
}

func buildTimeline(samples []sample, start time.Time, bucket time.Duration, points int) []models.TimelinePoint {
	timeline := make([]models.TimelinePoint, points)
	for i := range timeline {
		bucketStart := start.Add(bucket * time.Duration(i))
		timeline[i] = models.TimelinePoint{
			ClassName: classUnknown,
			Start:     bucketStart,
			End:       bucketStart.Add(bucket),
		}
	}

	for _, s := range samples {
		idx := bucketIndex(s.Timestamp, start, bucket, points)
		if idx < 0 {
			continue
		}
		point := &timeline[idx]
		class := classify(s.Status)
		if rank(class) > rank(point.ClassName) {
			point.ClassName = class
		}
		if class == classError && len(point.Details) < maxDetailsPerPoint {
			point.Details = append(point.Details, models.TimelineDetail{
				Timestamp: s.Timestamp,
				Status:    s.Status,
				Error:     s.Error,
			})
		}
	}

	for i := range timeline {
		timeline[i].Label = labelFor(&timeline[i])
	}
	return timeline
}

func bucketIndex(ts, start time.Time, bucket time.Duration, points int) int {
	if bucket <= 0 || ts.Before(start) {
		return -1
	}
	idx := int(ts.Sub(start) / bucket)
	if idx >= points {
		return -1
	}
	return idx
}

func classify(status string) string {
	switch status {
	case models.StatusOnline:
		return classSuccess
	case models.StatusChecking:
		return classWarning
	case models.StatusOffline, models.StatusError:
		return classError
	default:
		return classUnknown
	}
}

func rank(class string) int {
	switch class {
	case classError:
		return 3
	case classWarning:
		return 2
	case classSuccess:
		return 1
	default:
		return 0
	}
}

func labelFor(point *models.TimelinePoint) string {
	switch point.ClassName {
	case classError:
		if len(point.Details) > 0 && point.Details[0].Error != "" {
			return point.Details[0].Error
		}
		return "failing"
	case classWarning:
		return "checking"
	case classSuccess:
		return "ok"
	default:
		return ""
	}
}

// Window returns the [start, end) range covered by the given entries, padded
// to at least a minute. It is used when the caller has no explicit range.
func Window(entries []models.StatusEntry) (time.Time, time.Time) {
	now := time.Now().UTC()
	if len(entries) == 0 {
		return now.Add(-time.Hour), now
	}
	start := entries[0].Timestamp
	for _, entry := range entries {
		if entry.Timestamp.Before(start) {
			start = entry.Timestamp
		}
	}
	end := now
	if !end.After(start) {
		end = start.Add(time.Minute)
	}
	return start, end
}

// RangeLabel renders a human-readable window size for the dashboard header.
func RangeLabel(start, end time.Time) string {
	duration := end.Sub(start)
	switch {
	case duration >= 24*time.Hour:
		return fmt.Sprintf("%dd", int(duration/(24*time.Hour)))
	case duration >= time.Hour:
		return fmt.Sprintf("%dh", int(duration/time.Hour))
	default:
		return fmt.Sprintf("%dm", int(duration/time.Minute))
	}
}
