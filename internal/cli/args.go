package cli

import (
	"fmt"
	"strings"
)

// Args represents the top-level command structure
type Args struct {
	ConfigPath *string `arg:"--config,env:CLIPPER_CONFIG" help:"Path to config.yaml (default ~/.config/clipper/config.yaml)"`
	DataDir    *string `arg:"--data-dir,env:CLIPPER_DATA_DIR" help:"Override the data directory"`
	LogLevel   *string `arg:"--log-level" help:"debug, info, warn or error"`

	Run    *RunCmd    `arg:"subcommand:run" help:"Watch the clipboard and serve the overlay (default)"`
	List   *ListCmd   `arg:"subcommand:list" help:"Print the history"`
	Search *SearchCmd `arg:"subcommand:search" help:"Print entries containing a term"`
	Pin    *IDCmd     `arg:"subcommand:pin" help:"Pin an entry so it is never evicted"`
	Unpin  *IDCmd     `arg:"subcommand:unpin" help:"Unpin an entry"`
	Delete *IDCmd     `arg:"subcommand:delete" help:"Delete an entry"`
	Clear  *ClearCmd  `arg:"subcommand:clear" help:"Delete history entries"`
	Config *ConfigCmd `arg:"subcommand:config" help:"Manage configuration"`
}

// RunCmd represents the 'clipper run' command
type RunCmd struct {
	Headless bool `arg:"--headless" help:"Hotkeys and paste only, no terminal overlay"`
}

// ListCmd represents the 'clipper list' command
type ListCmd struct {
	Pinned bool `arg:"-p,--pinned" help:"Only pinned entries"`
	Limit  int  `arg:"-n,--limit" help:"Maximum number of entries (0 = all)"`
	Full   bool `arg:"--full" help:"Print whole payloads instead of previews"`
}

// SearchCmd represents the 'clipper search' command
type SearchCmd struct {
	Term   string `arg:"positional,required" help:"Case-insensitive substring to look for"`
	Pinned bool   `arg:"-p,--pinned" help:"Only pinned entries"`
	Limit  int    `arg:"-n,--limit" help:"Maximum number of matches (0 = all)"`
}

// IDCmd targets one entry by id
type IDCmd struct {
	ID string `arg:"positional,required" help:"Entry id as printed by list"`
}

// ClearCmd represents the 'clipper clear' command
type ClearCmd struct {
	KeepPinned bool `arg:"-k,--keep-pinned" help:"Keep pinned entries"`
	Force      bool `arg:"-f,--force" help:"Skip confirmation prompt"`
}

// ConfigCmd represents the 'clipper config' command
type ConfigCmd struct {
	Get  *ConfigGetCmd  `arg:"subcommand:get" help:"Get configuration value"`
	Set  *ConfigSetCmd  `arg:"subcommand:set" help:"Set configuration value"`
	List *ConfigListCmd `arg:"subcommand:list" help:"List all configuration values"`
}

// ConfigGetCmd represents the 'clipper config get' command
type ConfigGetCmd struct {
	Key string `arg:"positional,required" help:"Configuration key"`
}

// ConfigSetCmd represents the 'clipper config set' command
type ConfigSetCmd struct {
	Key   string `arg:"positional,required" help:"Configuration key"`
	Value string `arg:"positional,required" help:"Configuration value"`
}

// ConfigListCmd represents the 'clipper config list' command
type ConfigListCmd struct{}

// Description returns the program description
func (Args) Description() string {
	return "clipper - clipboard history with a global hotkey overlay"
}

// Version returns the program version
func (Args) Version() string {
	return "clipper 0.1.0"
}

// Epilogue returns additional help text
func (Args) Epilogue() string {
	return `Examples:
  clipper                          # Watch the clipboard and open the overlay
  clipper run --headless           # Background mode, hotkeys only
  clipper list -n 10               # Ten most recent entries
  clipper search "ssh "            # Find entries containing "ssh "
  clipper pin 3f2a...              # Pin an entry (daemon must be stopped)
  clipper clear --keep-pinned      # Drop everything except pinned entries
  clipper config set history-limit 200`
}

// HasCommand reports whether a subcommand was given
func (args *Args) HasCommand() bool {
	return args.Run != nil || args.List != nil || args.Search != nil ||
		args.Pin != nil || args.Unpin != nil || args.Delete != nil ||
		args.Clear != nil || args.Config != nil
}

// Validate performs validation on the parsed arguments
func (args *Args) Validate() error {
	if args.List != nil && args.List.Limit < 0 {
		return fmt.Errorf("limit must be non-negative")
	}
	if args.Search != nil {
		if args.Search.Limit < 0 {
			return fmt.Errorf("limit must be non-negative")
		}
		if strings.TrimSpace(args.Search.Term) == "" {
			return fmt.Errorf("search term must not be empty")
		}
	}
	for _, c := range []*IDCmd{args.Pin, args.Unpin, args.Delete} {
		if c != nil && strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("entry id must not be empty")
		}
	}
	return nil
}
