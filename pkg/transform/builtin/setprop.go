package builtin

import (
	"context"
	"fmt"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/ElonVolo/evcodeshift/pkg/transform"
)

// SetPropertyName is the registry name of SetProperty.
const SetPropertyName = "set-property"

func init() {
	transform.Register(transform.Module{
		Name:       SetPropertyName,
		Func:       SetProperty,
		ParserName: "yaml",
	})
}

// 🔧 SetProperty replaces the value of every mapping entry named opts["key"]
// with opts["value"]. The value is decoded as YAML, so scalars, sequences
// and mappings all work ("[1, 2]", "{a: b}", "success").
//
// Without both options the file is returned unchanged.
func SetProperty(ctx context.Context, req transform.Request, api transform.API, opts transform.Options) (string, error) {
	if !opts.Has("key") || !opts.Has("value") {
		return req.Source, nil
	}
	key := opts.String("key")

	var value yaml.Node
	if err := yaml.Unmarshal([]byte(opts.String("value")), &value); err != nil {
		return "", errors.Errorf("decoding value for %q: %w", key, err)
	}
	if value.Kind != yaml.DocumentNode || len(value.Content) == 0 {
		return "", errors.Errorf("value for %q is empty", key)
	}
	replacement := value.Content[0]

	tree, err := api.Parser.Parse(req.Source)
	if err != nil {
		return "", errors.Errorf("parsing %s: %w", req.Path, err)
	}
	doc, ok := tree.(*yaml.Node)
	if !ok {
		return "", errors.Errorf("set-property needs the yaml parser, got %q", api.Parser.Name())
	}

	count := setProperty(doc, key, replacement)
	if count == 0 {
		api.Report(fmt.Sprintf("property %q not found", key))
		return req.Source, nil
	}
	api.Stats("properties", count)

	return api.Parser.Print(doc)
}

func setProperty(node *yaml.Node, key string, value *yaml.Node) int {
	count := 0
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == key {
				copied := *value
				node.Content[i+1] = &copied
				count++
				continue
			}
			count += setProperty(node.Content[i+1], key, value)
		}
		return count
	}
	for _, child := range node.Content {
		count += setProperty(child, key, value)
	}
	return count
}
