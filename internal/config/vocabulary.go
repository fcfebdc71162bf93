package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"yashubustudio/talentos/profiler"
)

// vocabularyFile is the on-disk vocabulary layout:
//
//	replace: false
//	categories:
//	  - name: Backend
//	    terms: [python, api]
type vocabularyFile struct {
	Replace    bool                `mapstructure:"replace"`
	Categories []profiler.Category `mapstructure:"categories"`
}

// LoadVocabulary returns the built-in categories overlaid with the file at
// path. With "replace: true" the file's categories are used alone. An empty
// path returns the built-in categories.
func LoadVocabulary(path string) ([]profiler.Category, error) {
	defaults := profiler.DefaultCategories()
	if strings.TrimSpace(path) == "" {
		return defaults, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read vocabulary %s: %w", path, err)
	}

	var file vocabularyFile
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &file,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode vocabulary %s: %w", path, err)
	}
	for i, c := range file.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("vocabulary %s: category %d has no name", path, i+1)
		}
	}

	if file.Replace {
		return file.Categories, nil
	}
	return profiler.MergeCategories(defaults, file.Categories), nil
}
