package bootstrap

import (
	"fmt"
	"os"

	"github.com/artpar/newsdemo/domain/news"
	"gopkg.in/yaml.v3"
)

// LoadSeed reads a news list from a YAML file:
//
//	items:
//	  - id: "1"
//	    title: "..."
//	    summary: "..."
//	    image: "https://..."
func LoadSeed(path string) (news.NewsList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return news.NewsList{}, fmt.Errorf("read seed file: %w", err)
	}

	var list news.NewsList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return news.NewsList{}, fmt.Errorf("parse seed file: %w", err)
	}
	if err := list.Validate(); err != nil {
		return news.NewsList{}, fmt.Errorf("seed file %s: %w", path, err)
	}
	return list, nil
}
