package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/jjansen/chatpilot/internal/config"
	"github.com/jjansen/chatpilot/internal/log"
	"github.com/jjansen/chatpilot/internal/output"
	"github.com/jjansen/chatpilot/internal/runner"
	"github.com/jjansen/chatpilot/internal/sheet"
	"github.com/jjansen/chatpilot/internal/tui"
	"github.com/jjansen/chatpilot/internal/types"
	"github.com/jjansen/chatpilot/internal/utils"
)

var version = "dev"

func printSummary(answers []types.Answer, questions []string) {
	slog.Info("printing run summary")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Question", "Seconds", "Status"})

	var nrFailed, nrSkipped int
	var totalSeconds float64
	for i, a := range answers {
		question := ""
		if i < len(questions) {
			question = utils.ShortenString(questions[i], 40)
		}
		status := "ok"
		if a.Failed {
			status = "failed"
		} else if a.Skipped {
			status = "skipped"
		} else if a.LowConfidence {
			status = "low confidence"
		}
		row := []string{strconv.Itoa(i + 1), question, fmt.Sprintf("%.2f", a.Seconds), status}
		if a.Failed {
			table.Rich(row, []tablewriter.Colors{{tablewriter.Normal, tablewriter.FgRedColor}, {tablewriter.Normal, tablewriter.FgRedColor}, {tablewriter.Normal, tablewriter.FgRedColor}, {tablewriter.Normal, tablewriter.FgRedColor}})
			nrFailed++
		} else if a.Skipped || a.LowConfidence {
			table.Rich(row, []tablewriter.Colors{{tablewriter.Normal, tablewriter.FgYellowColor}, {tablewriter.Normal, tablewriter.FgYellowColor}, {tablewriter.Normal, tablewriter.FgYellowColor}, {tablewriter.Normal, tablewriter.FgYellowColor}})
			if a.Skipped {
				nrSkipped++
			}
		} else {
			table.Append(row)
		}
		totalSeconds += a.Seconds
	}
	table.SetFooter([]string{"total", fmt.Sprintf("%d failed, %d skipped", nrFailed, nrSkipped), fmt.Sprintf("%.2f", totalSeconds), ""})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT})
	table.SetBorder(false)
	table.Render()
}

func errorLike(message string) bool {
	return strings.HasPrefix(message, "Error") || strings.HasPrefix(message, "Failed")
}

func initFiles(storeLoc, settingsLoc string) error {
	store := config.LoadStore(storeLoc)
	if err := store.Save(); err != nil {
		return err
	}
	slog.Info(fmt.Sprintf("wrote default service profiles to %s", storeLoc))
	if _, err := os.Stat(settingsLoc); err == nil {
		slog.Info(fmt.Sprintf("settings file %s already exists, leaving it alone", settingsLoc))
		return nil
	}
	settings, err := config.LoadSettings(settingsLoc)
	if err != nil {
		return err
	}
	yamlData, err := settings.SampleYAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(settingsLoc, yamlData, 0644); err != nil {
		return err
	}
	slog.Info(fmt.Sprintf("wrote sample settings to %s", settingsLoc))
	return nil
}

func main() {
	serviceName := flag.String("s", "chatgpt", "The name of the service profile to run against.")
	configLoc := flag.String("c", "./services.json", "The location of the service profile store.")
	settingsLoc := flag.String("settings", "./settings.yml", "The location of the settings file.")
	inputLoc := flag.String("i", "", "The xlsx workbook containing a 'Question' column.")
	outputLoc := flag.String("o", "", "The xlsx file to write results to. Defaults to results_<service>_<timestamp>.xlsx.")
	headless := flag.Bool("headless", false, "Run the browser without a visible window. Ignored on the first run against a profile directory because logging in needs a window.")
	useTui := flag.Bool("tui", false, "Show an interactive terminal view of the run.")
	toStdout := flag.Bool("stdout", false, "If set to true the recorded answers will be written to stdout despite any other existing writer configurations.")
	listServices := flag.Bool("list", false, "List the configured service profiles.")
	initConfig := flag.Bool("init", false, "Write the default service profiles and a sample settings file, then exit.")
	printVersion := flag.Bool("v", false, "The version of chatpilot.")
	debugFlag := flag.Bool("debug", false, "Prints debug logs and writes screenshots of the page to files.")
	summaryFlag := flag.Bool("summary", false, "Print a per-question summary at the end.")

	flag.Parse()

	if *printVersion {
		buildInfo, ok := debug.ReadBuildInfo()
		if ok {
			if buildInfo.Main.Version != "" && buildInfo.Main.Version != "(devel)" {
				fmt.Println(buildInfo.Main.Version)
				return
			}
		}
		fmt.Println(version)
		return
	}

	log.Debug = *debugFlag
	log.InitializeDefaultLogger()

	if *initConfig {
		if err := initFiles(*configLoc, *settingsLoc); err != nil {
			slog.Error(fmt.Sprintf("%v", err))
			os.Exit(1)
		}
		return
	}

	store := config.LoadStore(*configLoc)

	if *listServices {
		for _, name := range store.Names() {
			p, _ := store.Profile(name)
			fmt.Printf("%s\t%s\n", name, p.URL)
		}
		return
	}

	profile, err := store.Profile(*serviceName)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		os.Exit(1)
	}

	settings, err := config.LoadSettings(*settingsLoc)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		os.Exit(1)
	}

	if *inputLoc == "" {
		slog.Error("no input workbook given, use -i")
		os.Exit(1)
	}
	workbook, err := sheet.Load(*inputLoc)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		os.Exit(1)
	}
	defer workbook.Close()
	questions, err := workbook.Questions()
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		os.Exit(1)
	}
	if len(questions) == 0 {
		slog.Error(fmt.Sprintf("workbook %s contains no questions", *inputLoc))
		os.Exit(1)
	}
	slog.Info(fmt.Sprintf("loaded %d questions from %s", len(questions), *inputLoc))

	// A missing profile directory means there is no stored login state
	// yet, so the browser has to be visible and the operator has to get a
	// chance to log in before the questions start.
	firstRun := false
	if _, err := os.Stat(settings.ProfileDir); err != nil {
		firstRun = true
	}
	runHeadless := *headless || settings.Headless
	if firstRun && runHeadless {
		slog.Info("first run detected, forcing a visible browser window for login")
		runHeadless = false
	}

	var writer output.Writer
	if *toStdout {
		writer = output.NewStdoutWriter(&settings.Writer)
	} else {
		writer, err = output.NewWriter(&settings.Writer)
		if err != nil {
			slog.Error(fmt.Sprintf("%v", err))
			os.Exit(1)
		}
	}

	rc := &runner.RunConfig{
		Profile:    profile,
		Questions:  questions,
		ProfileDir: settings.ProfileDir,
		UserAgent:  settings.UserAgent,
		Headless:   runHeadless,
		DebugDir:   settings.DebugDir,
	}

	var ui *tui.UI
	var loginConfirm chan struct{}
	if *useTui {
		ui = tui.New(*serviceName, questions, firstRun)
		rc.LoginConfirm = ui.LoginConfirm()
	} else if firstRun {
		loginConfirm = make(chan struct{})
		rc.LoginConfirm = loginConfirm
	}

	runStart := time.Now()
	run := runner.Start(rc)

	var lastError string
	var drainWg sync.WaitGroup
	drainWg.Add(1)
	if *useTui {
		go func() {
			defer drainWg.Done()
			ui.Watch(run.Progress())
		}()
	} else {
		go func() {
			defer drainWg.Done()
			for p := range run.Progress() {
				slog.Info(p.Message, slog.Int("completed", p.Completed), slog.Int("total", p.Total))
				if errorLike(p.Message) {
					lastError = p.Message
				}
			}
		}()
		if firstRun {
			fmt.Println("Log in to the service in the browser window, then hit Enter to start.")
			bufio.NewReader(os.Stdin).ReadString('\n')
			close(loginConfirm)
		}
	}

	ceiling := time.Duration(settings.MaxRunMinutes) * time.Minute
	var answers []types.Answer
	if *useTui {
		// the event loop owns the terminal until the operator quits, the
		// run itself finishes in the background
		done := make(chan struct{})
		go func() {
			answers, err = run.Wait(ceiling)
			close(done)
		}()
		if uiErr := ui.Run(); uiErr != nil {
			slog.Error(fmt.Sprintf("%v", uiErr))
			os.Exit(1)
		}
		select {
		case <-done:
		default:
			slog.Info("waiting for the run to finish")
			<-done
		}
	} else {
		answers, err = run.Wait(ceiling)
	}
	runEnd := time.Now()
	drainWg.Wait()
	if err != nil {
		if lastError != "" {
			slog.Error(fmt.Sprintf("%v: %s", err, lastError))
		} else {
			slog.Error(fmt.Sprintf("%v", err))
		}
		os.Exit(1)
	}

	outPath := *outputLoc
	if outPath == "" {
		outPath = sheet.OutputName(*serviceName, runEnd)
	}
	if err := workbook.Apply(answers); err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		os.Exit(1)
	}
	if err := workbook.SaveAs(outPath); err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		os.Exit(1)
	}
	slog.Info(fmt.Sprintf("wrote results to %s", outPath))

	ac := make(chan types.Answer)
	var writerWg sync.WaitGroup
	writerWg.Add(1)
	go func() {
		defer writerWg.Done()
		writer.Write(ac)
	}()
	for _, a := range answers {
		ac <- a
	}
	close(ac)
	writerWg.Wait()
	if settings.Writer.WriteStatus {
		writer.WriteStatus(types.NewRunStatus(*serviceName, answers, runStart, runEnd))
	}

	if *summaryFlag {
		printSummary(answers, questions)
	}
}
