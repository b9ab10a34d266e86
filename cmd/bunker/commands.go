package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/studzonetools/bunker/internal/bunk"
	"github.com/studzonetools/bunker/internal/config"
	"github.com/studzonetools/bunker/internal/icsexport"
	"github.com/studzonetools/bunker/internal/studzone"
	"github.com/studzonetools/bunker/internal/web"
)

type credFlags struct {
	rollNo   string
	password string
}

func (f *credFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.rollNo, "rollno", os.Getenv("BUNKER_ROLLNO"), "StudZone roll number")
	cmd.Flags().StringVar(&f.password, "password", os.Getenv("BUNKER_PASSWORD"), "StudZone password")
}

func (f *credFlags) resolve() (studzone.Credentials, error) {
	creds := studzone.Credentials{RollNo: f.rollNo, Password: f.password}
	reader := bufio.NewReader(os.Stdin)
	if creds.RollNo == "" {
		fmt.Print("Roll number: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return studzone.Credentials{}, err
		}
		creds.RollNo = strings.TrimSpace(line)
	}
	if creds.Password == "" {
		fmt.Print("Password: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return studzone.Credentials{}, err
		}
		creds.Password = strings.TrimSpace(line)
	}
	if creds.RollNo == "" || creds.Password == "" {
		return studzone.Credentials{}, fmt.Errorf("both roll number and password are required")
	}
	return creds, nil
}

func login(cfg config.Config, creds credFlags) (*studzone.Session, error) {
	resolved, err := creds.resolve()
	if err != nil {
		return nil, err
	}
	return studzone.NewClient(cfg.PortalURL).Login(resolved)
}

func newAttendanceCmd(configPath *string) *cobra.Command {
	var creds credFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "Fetch attendance and show bunk/attend advice per course",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			threshold, err := bunk.Threshold(cfg.Threshold)
			if err != nil {
				return err
			}

			sess, err := login(cfg, creds)
			if err != nil {
				return err
			}
			defer sess.Close()

			records, err := sess.FetchAttendance()
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(records)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COURSE\tHOURS\tPRESENT\t%\tADVICE")
			for _, rec := range records {
				p := bunk.Project(rec.TotalHours, rec.TotalPresent, threshold)
				advice := fmt.Sprintf("attend %d more", p.Count)
				if p.Status == bunk.CanBunk {
					advice = fmt.Sprintf("can bunk %d", p.Count)
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%.2f\t%s\n",
					rec.CourseCode, rec.TotalHours, rec.TotalPresent, rec.Percentage, advice)
			}
			return w.Flush()
		},
	}
	creds.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit raw JSON")
	return cmd
}

func newTimetableCmd(configPath *string) *cobra.Command {
	var creds credFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "timetable",
		Short: "Fetch the weekly timetable grid",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			sess, err := login(cfg, creds)
			if err != nil {
				return err
			}
			defer sess.Close()

			grid, err := sess.FetchTimetable()
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(grid)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DAY\t"+strings.Join(grid.Periods, "\t"))
			for _, day := range grid.Days {
				cells := make([]string, len(grid.Periods))
				for i := range cells {
					cells[i] = "-"
				}
				for _, slot := range day.Slots {
					if !slot.Free {
						label := slot.CourseCode
						if label == "" {
							label = slot.CourseName
						}
						cells[slot.Period-1] = label
					}
				}
				fmt.Fprintln(w, day.Day+"\t"+strings.Join(cells, "\t"))
			}
			return w.Flush()
		},
	}
	creds.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit raw JSON")
	return cmd
}

func newWhatIfCmd(configPath *string) *cobra.Command {
	var hours, present, future, attending int

	cmd := &cobra.Command{
		Use:   "whatif",
		Short: "Project attendance over a planned block of future classes",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			threshold, err := bunk.Threshold(cfg.Threshold)
			if err != nil {
				return err
			}
			if attending > future {
				return fmt.Errorf("attending %d of only %d future classes is not possible", attending, future)
			}
			return printJSON(bunk.ProjectWhatIf(hours, present, future, attending, threshold))
		},
	}
	cmd.Flags().IntVar(&hours, "hours", 0, "current total hours")
	cmd.Flags().IntVar(&present, "present", 0, "current hours present")
	cmd.Flags().IntVar(&future, "future", 0, "planned future classes")
	cmd.Flags().IntVar(&attending, "attending", 0, "future classes you will attend")
	return cmd
}

func newExportCmd(configPath *string) *cobra.Command {
	var creds credFlags
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export this week's timetable as an iCalendar file",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			sess, err := login(cfg, creds)
			if err != nil {
				return err
			}
			defer sess.Close()

			grid, err := sess.FetchTimetable()
			if err != nil {
				return err
			}
			cal, err := icsexport.Calendar(grid, icsexport.WeekStart(time.Now()))
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, []byte(cal.Serialize()), 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", out)
			return nil
		},
	}
	creds.register(cmd)
	cmd.Flags().StringVar(&out, "out", "bunker.ics", "output file")
	return cmd
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP front end",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			threshold, err := bunk.Threshold(cfg.Threshold)
			if err != nil {
				return err
			}

			srv := web.New(web.Options{
				Client:     studzone.NewClient(cfg.PortalURL),
				Threshold:  threshold,
				JWTSecret:  []byte(cfg.JWTSecret),
				SessionTTL: cfg.SessionTTL(),
			})

			done := make(chan os.Signal, 1)
			signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-done
				_ = srv.Shutdown()
			}()

			fmt.Printf("listening on %s\n", cfg.HTTPAddr)
			return srv.Listen(cfg.HTTPAddr)
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
