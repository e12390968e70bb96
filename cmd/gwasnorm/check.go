package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gwaskit/gwasnorm/internal/dbsnp"
)

func newCheckCmd() *cobra.Command {
	var (
		dbsnpDir  string
		chainPath string
		panelPath string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify that the configured reference resources are usable",
		Long: `Probe the dbSNP lookup directory, chain file and reference panel before a
run. Paths are taken from flags or from ~/.gwasnorm.yaml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(dbsnpDir, chainPath, panelPath)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&dbsnpDir, "dbsnp", "d", "", "Directory with dbSNP lookup parquet files")
	fs.StringVarP(&chainPath, "chain", "c", "", "hg19-to-hg38 chain file")
	fs.StringVarP(&panelPath, "panel", "p", "", "Reference panel variant list")

	return cmd
}

func runCheck(dbsnpDir, chainPath, panelPath string) error {
	if dbsnpDir == "" {
		dbsnpDir = viper.GetString("resources.dbsnp")
	}
	if chainPath == "" {
		chainPath = viper.GetString("resources.chain")
	}
	if panelPath == "" {
		panelPath = viper.GetString("resources.panel")
	}

	failed := false

	if dbsnpDir == "" {
		fmt.Println("dbSNP index:      not configured")
		failed = true
	} else if index, err := dbsnp.Open(dbsnpDir); err != nil {
		fmt.Printf("dbSNP index:      FAIL (%v)\n", err)
		failed = true
	} else {
		fmt.Printf("dbSNP index:      ok (%d lookup files in %s)\n", len(index.Files()), dbsnpDir)
	}

	if chainPath == "" {
		fmt.Println("chain mapping:    not configured (only needed for hg19 input)")
	} else if err := probeFile(chainPath); err != nil {
		fmt.Printf("chain mapping:    FAIL (%v)\n", err)
		failed = true
	} else {
		fmt.Printf("chain mapping:    ok (%s)\n", chainPath)
	}

	if panelPath == "" {
		fmt.Println("reference panel:  not configured")
		failed = true
	} else if err := probeFile(panelPath); err != nil {
		fmt.Printf("reference panel:  FAIL (%v)\n", err)
		failed = true
	} else {
		fmt.Printf("reference panel:  ok (%s)\n", panelPath)
	}

	if failed {
		return fmt.Errorf("one or more resources are unavailable")
	}
	return nil
}

func probeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}
