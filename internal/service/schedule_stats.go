package service

import (
	"fmt"
	"sort"

	"github.com/noah-isme/schedulease-api/internal/models"
)

// --- Result assembly ---

func buildScheduleResult(sections []models.Section) models.ScheduleResult {
	blocks := expandBlocks(sections)
	return models.ScheduleResult{
		SectionRefs: sortedRefs(sections),
		Sections:    sections,
		Blocks:      blocks,
		Stats:       computeStats(blocks),
	}
}

// expandBlocks emits one block per (section, weekday). Sections without a day
// pattern produce a single TBA block so they stay visible.
func expandBlocks(sections []models.Section) []models.ScheduleBlock {
	blocks := make([]models.ScheduleBlock, 0, len(sections)*2)
	for _, section := range sections {
		days := section.Days.Days()
		if len(days) == 0 {
			days = []models.Weekday{models.WeekdayNone}
		}
		for _, day := range days {
			blocks = append(blocks, models.ScheduleBlock{
				Day:        day,
				Start:      section.Start,
				End:        section.End,
				Title:      blockTitle(section),
				CRN:        section.Ref,
				CourseID:   section.CourseID,
				Kind:       section.Kind,
				Location:   section.Location,
				Instructor: section.Instructor,
			})
		}
	}
	return blocks
}

func blockTitle(section models.Section) string {
	return fmt.Sprintf("%s %s", section.CourseID, section.Kind.Abbrev())
}

// computeStats ignores TBA blocks. Distinct days counts weekdays of timed blocks only.
func computeStats(blocks []models.ScheduleBlock) models.ScheduleStats {
	stats := models.ScheduleStats{Earliest: models.Unscheduled, Latest: models.Unscheduled}

	byDay := make(map[models.Weekday][]models.ScheduleBlock)
	for _, block := range blocks {
		if !block.Timed() {
			continue
		}
		if !stats.Earliest.Scheduled() || block.Start < stats.Earliest {
			stats.Earliest = block.Start
		}
		if block.End > stats.Latest {
			stats.Latest = block.End
		}
		byDay[block.Day] = append(byDay[block.Day], block)
	}

	for _, dayBlocks := range byDay {
		sort.Slice(dayBlocks, func(i, j int) bool {
			return dayBlocks[i].Start < dayBlocks[j].Start
		})
		for i := 0; i < len(dayBlocks)-1; i++ {
			gap := int(dayBlocks[i+1].Start - dayBlocks[i].End)
			if gap > 0 {
				stats.TotalGapMinutes += gap
			}
		}
	}
	stats.DistinctDays = len(byDay)
	return stats
}
