package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/klokku/courseplan/internal/config"
	"github.com/klokku/courseplan/internal/event_bus"
	"github.com/klokku/courseplan/internal/utils"
	"github.com/klokku/courseplan/pkg/calendar"
	"github.com/klokku/courseplan/pkg/schedule"
	"github.com/klokku/courseplan/pkg/selection"
	"github.com/klokku/courseplan/pkg/timeslot"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	userId     string
	friendId   string
	highlight  string
	outputPath string
	newSection addFlags
)

type addFlags struct {
	name       string
	days       []string
	time       string
	professor  string
	location   string
	capacity   int
	enrollment int
	credits    int
}

// remote is what a session needs from the API.
type remote interface {
	schedule.Remote
	schedule.FriendFetcher
}

// session is one signed-in user's schedule, loaded for a single command.
type session struct {
	store    *schedule.Store
	viewer   *schedule.Viewer
	exporter *calendar.Exporter
}

func newSession(ctx context.Context, cfg config.Application, api remote, user string) (*session, error) {
	grid := calendar.Grid{StartHour: cfg.Schedule.GridStartHour, EndHour: cfg.Schedule.GridEndHour}
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	start, end, loc, err := cfg.Term.Dates()
	if err != nil {
		return nil, err
	}

	bus := event_bus.NewEventBus()
	event_bus.SubscribeTyped(bus, event_bus.SelectionsLoaded, func(e event_bus.EventT[event_bus.SelectionsReloaded]) error {
		log.Debugf("loaded %d selections of %s", e.Data.Count, e.Data.UserId)
		return nil
	})

	store := schedule.NewStore(api, bus, cfg.Schedule.RequestTimeout)
	if err := store.Load(ctx, user); err != nil {
		return nil, err
	}
	return &session{
		store:    store,
		viewer:   schedule.NewViewer(store, api, calendar.NewProjector(grid), cfg.Schedule.RequestTimeout),
		exporter: calendar.NewExporter(calendar.Term{Start: start, End: end, Location: loc}, grid, utils.SystemClock{}),
	}, nil
}

// openSession loads the configuration and the --user schedule from the configured API.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if userId == "" {
		userId = os.Getenv("COURSEPLAN_USER")
	}
	api := selection.NewClient(cfg.Schedule.ApiUrl, cfg.Schedule.RequestTimeout)
	return newSession(cmd.Context(), cfg, api, userId)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show and change a weekly schedule",
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the weekly calendar of the user or of a friend",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		if friendId != "" {
			if err := s.viewer.ViewFriend(cmd.Context(), friendId); err != nil {
				log.Warnf("showing an empty schedule: %v", err)
			}
		}
		s.store.Highlight(highlight)
		return s.print(cmd.OutOrStdout())
	},
}

var addCmd = &cobra.Command{
	Use:   "add COURSE_ID SECTION_INDEX",
	Short: "Select a course section",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sectionIndex, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid section index %q: %w", args[1], err)
		}
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		slot := timeslot.TimeSlot{
			Days:       newSection.days,
			Time:       newSection.time,
			Professor:  newSection.professor,
			Location:   newSection.location,
			Capacity:   newSection.capacity,
			Enrollment: newSection.enrollment,
		}
		if slot.IsFull() {
			log.Warnf("section %d of %s is full", sectionIndex, args[0])
		}
		if err := s.viewer.Add(cmd.Context(), args[0], newSection.name, sectionIndex, slot, newSection.credits); err != nil {
			return err
		}
		return s.print(cmd.OutOrStdout())
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove COURSE_ID [SECTION_INDEX]",
	Short: "Drop one section of a course, or the whole course",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			err = s.viewer.RemoveCourse(cmd.Context(), args[0])
		} else {
			sectionIndex, convErr := strconv.Atoi(args[1])
			if convErr != nil {
				return fmt.Errorf("invalid section index %q: %w", args[1], convErr)
			}
			err = s.viewer.Remove(cmd.Context(), args[0], sectionIndex)
		}
		if err != nil {
			return err
		}
		return s.print(cmd.OutOrStdout())
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the schedule as an iCalendar file",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		owner := s.store.UserId()
		if friendId != "" {
			if err := s.viewer.ViewFriend(cmd.Context(), friendId); err != nil {
				return err
			}
			owner = friendId
		}
		feed, err := s.exporter.Export(owner, s.viewer.Events())
		if err != nil {
			return err
		}
		if outputPath == "" || outputPath == "-" {
			_, err = io.WriteString(cmd.OutOrStdout(), feed)
			return err
		}
		if err := os.WriteFile(outputPath, []byte(feed), 0o644); err != nil {
			return err
		}
		log.Infof("schedule written to %s", outputPath)
		return nil
	},
}

// print writes the events currently shown, one line per meeting.
func (s *session) print(w io.Writer) error {
	mode, whose := s.viewer.Mode()
	if mode == schedule.ModeSelf {
		whose = s.store.UserId()
	}
	highlighted, _ := s.store.Highlighted()
	events := s.viewer.Events()
	grid := s.viewer.Grid()

	fmt.Fprintf(w, "Schedule of %s (%s)\n", whose, mode)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range events {
		mark := " "
		if highlighted != "" && e.Source.CourseId == highlighted {
			mark = "*"
		}
		note := ""
		if !grid.Overlaps(e) {
			note = "outside calendar hours"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s #%d\t%s\t%s\n",
			mark, e.Day.String()[:3], e.Label(grid), e.Source.CourseId, e.Source.CourseName,
			e.Source.SectionIndex, e.Source.SectionData.Location, note)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(w, "No classes.")
	}
	if mode == schedule.ModeSelf {
		fmt.Fprintf(w, "Total credits: %d\n", s.store.TotalCredits())
	}
	return nil
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.AddCommand(showCmd, addCmd, removeCmd, exportCmd)

	scheduleCmd.PersistentFlags().StringVarP(&userId, "user", "u", "", "User the schedule belongs to (defaults to $COURSEPLAN_USER)")

	showCmd.Flags().StringVarP(&friendId, "friend", "f", "", "Show a friend's schedule instead")
	showCmd.Flags().StringVar(&highlight, "highlight", "", "Course to emphasize")

	exportCmd.Flags().StringVarP(&friendId, "friend", "f", "", "Export a friend's schedule instead")
	exportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "File to write, stdout when empty")

	addCmd.Flags().StringVar(&newSection.name, "name", "", "Course name")
	addCmd.Flags().StringSliceVar(&newSection.days, "days", nil, "Meeting days, e.g. M,W or Tu,Th")
	addCmd.Flags().StringVar(&newSection.time, "time", "", `Meeting time, e.g. "11:40am - 12:55pm"`)
	addCmd.Flags().StringVar(&newSection.professor, "professor", "", "Instructor")
	addCmd.Flags().StringVar(&newSection.location, "location", "", "Room")
	addCmd.Flags().IntVar(&newSection.capacity, "capacity", 0, "Seats in the section")
	addCmd.Flags().IntVar(&newSection.enrollment, "enrollment", 0, "Seats taken")
	addCmd.Flags().IntVar(&newSection.credits, "credits", 0, "Credits of the course")
}
