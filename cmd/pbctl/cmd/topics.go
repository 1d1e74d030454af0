package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nfrund/profitbridge/cmd/pbctl/internal/output"
	"github.com/nfrund/profitbridge/internal/topicmgr"
	"github.com/nfrund/profitbridge/internal/websocket"
	"github.com/spf13/cobra"
)

// topicManager returns a manager holding every topic the server registers.
func topicManager() (*topicmgr.Manager, error) {
	m := topicmgr.NewManager()
	if err := m.RegisterAll(websocket.Topics()...); err != nil {
		return nil, fmt.Errorf("registering topics: %w", err)
	}
	return m, nil
}

func newTopicsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Explore the websocket bus topics",
		Long: `The topics command lists, inspects and validates the topics the server uses
to route websocket traffic over its message bus.

Examples:
  pbctl topics list
  pbctl topics list --scope framework --format json
  pbctl topics get ws.client.ready
  pbctl topics validate ws.data.direct`,
	}
	cmd.AddCommand(newTopicsListCmd(), newTopicsGetCmd(), newTopicsValidateCmd())
	return cmd
}

func newTopicsListCmd() *cobra.Command {
	var format, module, scope string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered topics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := topicManager()
			if err != nil {
				return err
			}

			list := m.List()
			if module != "" {
				list = m.ListByModule(module)
			}
			if scope != "" {
				s, err := parseScope(scope)
				if err != nil {
					return err
				}
				list = filterScope(list, s)
			}

			switch format {
			case "json":
				return output.TopicsJSON(cmd.OutOrStdout(), list)
			case "table":
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No topics found")
					return nil
				}
				return output.TopicsTable(cmd.OutOrStdout(), list)
			default:
				return fmt.Errorf("unsupported output format %q, use table or json", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json)")
	cmd.Flags().StringVarP(&module, "module", "m", "", "Filter topics by module name")
	cmd.Flags().StringVar(&scope, "scope", "", "Filter topics by scope (framework, module)")
	return cmd
}

func newTopicsGetCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "get <topic-name>",
		Short: "Show one topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := topicManager()
			if err != nil {
				return err
			}
			topic, ok := m.Get(args[0])
			if !ok {
				return fmt.Errorf("topic %q not found, use 'pbctl topics list' to see all topics", args[0])
			}
			return output.TopicDetails(cmd.OutOrStdout(), topic, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json)")
	return cmd
}

func newTopicsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <topic-name>",
		Short: "Validate a topic name and its definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := topicmgr.ValidateName(name); err != nil {
				return fmt.Errorf("topic name validation failed: %w", err)
			}

			m, err := topicManager()
			if err != nil {
				return err
			}
			topic, ok := m.Get(name)
			if !ok {
				return fmt.Errorf("topic %q not found", name)
			}
			if err := topicmgr.Validate(topic); err != nil {
				return fmt.Errorf("topic validation failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Topic '%s' is valid\n", topic.Name())
			fmt.Fprintf(cmd.OutOrStdout(), "   Scope: %s\n", topic.Scope())
			return nil
		},
	}
}

func parseScope(s string) (topicmgr.TopicScope, error) {
	switch strings.ToLower(s) {
	case "framework":
		return topicmgr.ScopeFramework, nil
	case "module":
		return topicmgr.ScopeModule, nil
	default:
		return "", errors.New("invalid scope, valid scopes: framework, module")
	}
}

func filterScope(list []topicmgr.Topic, scope topicmgr.TopicScope) []topicmgr.Topic {
	var out []topicmgr.Topic
	for _, t := range list {
		if t.Scope() == scope {
			out = append(out, t)
		}
	}
	return out
}
