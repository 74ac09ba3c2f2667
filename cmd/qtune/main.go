package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/natefinch/lumberjack"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/vishvananda/netlink"
	"github.com/virtnic/qtune/internal/tune"
	"github.com/virtnic/qtune/pkg/builder"
	"github.com/virtnic/qtune/pkg/ethtool"
	"github.com/virtnic/qtune/pkg/netutil"
)

var (
	verbose   bool
	version   bool
	logFile   string
	noSummary bool
)

var rootCmd = &cobra.Command{
	Use:   "qtune",
	Short: "One-shot boot-time tuning of NIC interrupt and transmit queue CPU affinity",
	Run: func(cmd *cobra.Command, args []string) {
		if version {
			fmt.Println(color.HiBlueString(builder.BuildInfo()))
			os.Exit(0)
		}
		run()
	},
}

func run() {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if logFile != "" {
		logrus.SetOutput(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		})
	}

	logrus.WithField("pid", os.Getpid()).Info("qtune start")
	defer logrus.Info("qtune done")

	fs := afero.NewOsFs()
	logLinkInventory(fs)

	var et ethtool.Tool
	if cli, err := ethtool.NewCLI(); err == nil {
		et = cli
	} else {
		logrus.WithError(err).Debug("ethtool lookup failed")
	}

	outcomes := tune.New(fs, et).Run()
	if !noSummary {
		printSummary(outcomes)
	}
}

func logLinkInventory(fs afero.Fs) {
	links, err := netlink.LinkList()
	if err != nil {
		logrus.WithError(err).Debug("Failed to list links")
		return
	}
	for _, link := range links {
		attrs := link.Attrs()
		logrus.WithFields(logrus.Fields{
			"index": attrs.Index,
			"name":  attrs.Name,
			"type":  link.Type(),
			"phy":   netutil.IsPhyNic(fs, attrs.Name),
		}).Debug("Link")
	}
}

func printSummary(outcomes []tune.Outcome) {
	data := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		data = append(data, []string{o.Component, o.Item, string(o.Action), o.Detail})
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.SeparatorsNone,
				Lines:      tw.LinesNone,
			},
		})),
	)
	table.Header("Component", "Item", "Action", "Detail")
	table.Bulk(data)
	table.Render()
}

func main() {
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.Flags().BoolVarP(&version, "version", "V", false, "Print version")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to a rotated file instead of stdout")
	rootCmd.Flags().BoolVar(&noSummary, "no-summary", false, "Suppress the outcome summary table")
	rootCmd.Execute()
}
