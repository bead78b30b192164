package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/service"
	"github.com/noah-isme/tutor-booking-api/internal/timezone"
	"github.com/noah-isme/tutor-booking-api/pkg/config"
)

var (
	date        = flag.String("date", time.Now().Format(timezone.DateLayout), "Client local date (YYYY-MM-DD)")
	zone        = flag.String("tz", "saudi", "Client zone id")
	clock       = flag.String("time", "19:00", "Client local time (HH:MM)")
	teacherType = flag.String("type", "", "Teacher type filter")
	list        = flag.Bool("list", false, "List registered zones and exit")
	tokenUser   = flag.String("token-user", "", "Print a development access token for this user id")
	tokenRole   = flag.String("token-role", string(models.RoleSales), "Role for -token-user")
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	label   = color.New(color.FgHiBlack)
	shifted = color.New(color.FgYellow)
	failure = color.New(color.FgRed)
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		exit("load config: %v", err)
	}
	registry, err := timezone.NewRegistry(cfg.Booking.OperationsTimezone, timezone.DefaultDescriptors...)
	if err != nil {
		exit("build registry: %v", err)
	}

	switch {
	case *tokenUser != "":
		printToken(cfg)
	case *list:
		printZones(registry)
	default:
		printConversion(registry)
	}
}

func printZones(registry *timezone.Registry) {
	heading.Println("Registered zones")
	ops := registry.Operations().ID
	for _, d := range registry.List() {
		line := fmt.Sprintf("  %-8s %-14s UTC%+d  %s", d.ID, d.IANA, d.OffsetHours, d.Label)
		if d.ID == ops {
			shifted.Println(line + "  (operations)")
			continue
		}
		fmt.Println(line)
	}
}

func printConversion(registry *timezone.Registry) {
	client, err := registry.Lookup(*zone)
	if err != nil {
		exit("%v", err)
	}
	localDate, err := timezone.ParseDate(*date)
	if err != nil {
		exit("%v", err)
	}
	minutes, err := timezone.ParseSlot(*clock)
	if err != nil {
		exit("%v", err)
	}
	tt, err := models.ParseTeacherType(*teacherType)
	if err != nil {
		exit("%v", err)
	}
	conv, err := timezone.Convert(localDate, minutes/60, client)
	if err != nil {
		exit("%v", err)
	}
	query := service.BuildAvailabilityQuery(conv.UTCDate, conv.UTCHour, tt)

	heading.Printf("%s %s in %s\n", *date, timezone.FormatSlot(minutes), client.Label)
	label.Print("  UTC date    ")
	if conv.DayShift != 0 {
		shifted.Printf("%s (%+d day)\n", conv.UTCDate.Format(timezone.DateLayout), conv.DayShift)
	} else {
		fmt.Println(conv.UTCDate.Format(timezone.DateLayout))
	}
	label.Print("  UTC hour    ")
	fmt.Printf("%02d:00\n", conv.UTCHour)
	label.Print("  window      ")
	from, to := query.Window()
	fmt.Printf("[%s, %s)\n", from, to)
	label.Print("  types       ")
	fmt.Println(query.TeacherTypes)

	heading.Println("Slots in window")
	for _, rg := range query.Ranges {
		start, err := timezone.SlotInstant(rg.Date, rg.StartTime)
		if err != nil {
			exit("%v", err)
		}
		// EndTime may be the exclusive "24:00", which is not a slot itself.
		end := rg.Date.Add(time.Duration(minutesOf(rg.EndTime)) * time.Minute)
		for at := start; at.Before(end); at = at.Add(timezone.SlotMinutes * time.Minute) {
			display := registry.Display(at, client)
			fmt.Printf("  %s  %-20s %-22s %s\n", at.Format("2006-01-02 15:04"), display.ClientDay, display.Client, display.Operations)
		}
	}
}

func minutesOf(hhmm string) int {
	var h, m int
	_, _ = fmt.Sscanf(hhmm, "%d:%d", &h, &m)
	return h*60 + m
}

func printToken(cfg *config.Config) {
	auth := service.NewAuthService(nil, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		TokenExpiry:       12 * time.Hour,
	})
	token, err := auth.IssueToken(*tokenUser, models.UserRole(*tokenRole), "")
	if err != nil {
		exit("issue token: %v", err)
	}
	fmt.Println(token)
}

func exit(format string, args ...interface{}) {
	failure.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
