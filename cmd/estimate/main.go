package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"food-co2-estimator/internal/bootstrap"
	"food-co2-estimator/internal/infrastructure/config"
	"food-co2-estimator/internal/pkg/common"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	input := flag.StringP("input", "i", "", "recipe URL, path to a text file, or - for stdin")
	verbose := flag.BoolP("verbose", "v", false, "include per-ingredient comments")
	threshold := flag.Float64P("threshold", "t", -1, "negligible weight threshold in kg (default from config)")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	if *input == "" && flag.NArg() > 0 {
		*input = flag.Arg(0)
	}
	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := common.InitLogger(*logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	text, err := readInput(*input)
	if err != nil {
		common.LogFatal("Failed to read input", zap.String("input", *input), zap.Error(err))
	}

	if *threshold < 0 {
		*threshold = cfg.Estimator.NegligibleThreshold
	}

	app, err := bootstrap.Build(context.Background(), cfg)
	if err != nil {
		common.LogFatal("Failed to build services", zap.Error(err))
	}
	defer app.Close()

	fmt.Println(app.Estimator.Estimate(context.Background(), text, *verbose, *threshold))
}

// readInput 網址原樣回傳；其餘視為檔案路徑，找不到檔案時當作食譜文字
func readInput(input string) (string, error) {
	if common.IsHTTPURL(input) {
		return input, nil
	}
	if input == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(input)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
		return input, nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
