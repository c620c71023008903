package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"NewsAnalyzer/internal/config"
)

func bindFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		fmt.Fprintf(os.Stderr, "bind flag %s: %v\n", key, err)
	}
}

// applyOverrides copies values set by flags or NEWSANALYZER_* variables
// over the file configuration.
func applyOverrides(c *config.Config) {
	setString("logging.level", &c.Logging.Level)
	setString("logging.format", &c.Logging.Format)
	setString("archive.path", &c.Archive.Path)
	setBool("archive.disabled", &c.Archive.Disabled)

	setString("keywords.include", &c.Keywords.Include)
	setString("keywords.exclude", &c.Keywords.Exclude)
	setInt("search.pages", &c.Search.Pages)

	setString("embedding.model-path", &c.Embedding.ModelPath)
	setBool("embedding.train", &c.Embedding.Train)
	setString("embedding.trained-model", &c.Embedding.TrainedModel)

	setInt("clustering.min-cluster-size", &c.Clustering.MinClusterSize)
	setInt("clustering.min-samples", &c.Clustering.MinSamples)

	setInt("workers.pages", &c.Workers.Pages)
	setInt("workers.details", &c.Workers.Details)
	setInt("workers.embed", &c.Workers.Embed)
}

func setString(key string, dst *string) {
	if viper.IsSet(key) {
		*dst = viper.GetString(key)
	}
}

func setInt(key string, dst *int) {
	if viper.IsSet(key) {
		*dst = viper.GetInt(key)
	}
}

func setBool(key string, dst *bool) {
	if viper.IsSet(key) {
		*dst = viper.GetBool(key)
	}
}
