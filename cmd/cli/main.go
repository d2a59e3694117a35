package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"go.uber.org/zap"

	"timetable-engine/internal/config"
	"timetable-engine/internal/csvio"
	"timetable-engine/internal/engine"
	"timetable-engine/internal/progress"
	"timetable-engine/pkg/model"
)

func main() {
	inputPtr := flag.String("input", "", "JSON request payload file")
	csvPtr := flag.String("csv", "", "directory holding courses.csv, faculty.csv, rooms.csv, allotments.csv")
	algorithmPtr := flag.String("algorithm", "", `solving algorithm: "greedy" or "cpsat" (default from config)`)
	configPtr := flag.String("config", "", "optional config file")
	verbosePtr := flag.Bool("v", false, "log progress updates")
	flag.Parse()

	cfg, err := config.Load(*configPtr)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if *algorithmPtr != "" {
		cfg.Algorithm = *algorithmPtr
		if err := config.Validate(cfg); err != nil {
			log.Fatalf("config error: %v", err)
		}
	}

	req, err := loadRequest(*inputPtr, *csvPtr)
	if err != nil {
		log.Fatalf("cannot load request: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logger.Sync()

	scheduler, err := engine.New(cfg, logger)
	if err != nil {
		log.Fatalf("engine setup failed: %v", err)
	}

	sink := progress.Nop()
	if *verbosePtr {
		sink = progress.SinkFunc(func(u progress.Update) {
			logger.Info("progress",
				zap.String("status", string(u.Status)),
				zap.Int("percent", u.Progress),
				zap.String("message", u.Message))
		})
	}

	result, err := scheduler.Generate(context.Background(), req, sink)
	if err != nil {
		log.Fatal(err)
	}

	printTimetable(result)

	if ok, report := engine.Verify(req, result); !ok {
		log.Fatalf("verification failed:\n%s", report)
	}
	fmt.Println("Well done!")
}

func loadRequest(inputFile, csvDir string) (*model.GenerateRequest, error) {
	switch {
	case inputFile != "":
		body, err := os.ReadFile(inputFile)
		if err != nil {
			return nil, err
		}
		return engine.ParseRequestJSON(body)
	case csvDir != "":
		return csvio.LoadDataset(csvDir)
	default:
		return nil, fmt.Errorf("either -input or -csv is required")
	}
}

func printTimetable(result *model.GenerateResult) {
	entries := make([]model.TimetableEntry, len(result.Timetable))
	copy(entries, result.Timetable)

	dayOrder := make(map[string]int, len(engine.Days))
	for i, day := range engine.Days {
		dayOrder[day] = i
	}
	sort.Slice(entries, func(i, j int) bool {
		if dayOrder[entries[i].TimeSlot.Day] != dayOrder[entries[j].TimeSlot.Day] {
			return dayOrder[entries[i].TimeSlot.Day] < dayOrder[entries[j].TimeSlot.Day]
		}
		if entries[i].TimeSlot.StartTime != entries[j].TimeSlot.StartTime {
			return entries[i].TimeSlot.StartTime < entries[j].TimeSlot.StartTime
		}
		return entries[i].ClassID < entries[j].ClassID
	})

	for _, entry := range entries {
		fmt.Printf("Day: %v, Start: %v, Course: %v (%v), Faculty: %v, Class: %v, Room: %v\n",
			entry.TimeSlot.Day, entry.TimeSlot.StartTime, entry.CourseCode, entry.CourseName,
			entry.FacultyName, entry.ClassID, entry.RoomName)
	}
	for _, conflict := range result.Conflicts {
		fmt.Printf("Conflict [%v/%v]: %v\n", conflict.Type, conflict.Severity, conflict.Message)
	}
	fmt.Printf("%v\n", result.Message)
	fmt.Printf("Scheduled: %v, Used slots: %v, Conflicts: %v\n",
		result.Statistics.ScheduledCourses, result.Statistics.UsedSlots, result.Statistics.ConflictsFound)
}
