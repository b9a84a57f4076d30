package cmd

import (
	"context"
	"fmt"
	"strings"

	"anygent/internal/domain"
	"anygent/internal/ui"
)

const highlightWidth = 100

// FilesCmd browses the sandbox files
type FilesCmd struct {
	Tree FilesTreeCmd `cmd:"tree" help:"Print the sandbox file tree" default:"1"`
	Read FilesReadCmd `cmd:"read" help:"Print the content of a sandbox file"`
}

// FilesTreeCmd prints the sandbox file tree
type FilesTreeCmd struct {
	Refresh bool   `help:"Ask the backend to rescan the sandbox first"`
	Format  string `help:"Output format: tree or json" enum:"tree,json" default:"tree"`
}

// Run executes the tree command
func (f *FilesTreeCmd) Run(cli *CLI) error {
	ctx := context.Background()

	var (
		root *domain.FileNode
		err  error
	)
	if f.Refresh {
		root, err = cli.Container.Client.RefreshFileTree(ctx)
	} else {
		root, err = cli.Container.Client.FileTree(ctx)
	}
	if err != nil {
		return err
	}

	if f.Format == "json" {
		return printJSON(root)
	}

	fmt.Print(formatTree(root))
	return nil
}

// formatTree renders the tree one node per line, indented by depth
func formatTree(root *domain.FileNode) string {
	nodes := root.Flatten(nil)
	if len(nodes) == 0 {
		return "No files yet.\n"
	}

	var b strings.Builder
	for _, n := range nodes {
		name := n.Node.Name
		if n.Node.IsDir() {
			name += "/"
		}
		fmt.Fprintf(&b, "%s%s\n", strings.Repeat("  ", n.Depth), name)
	}
	return b.String()
}

// FilesReadCmd prints the content of a sandbox file
type FilesReadCmd struct {
	Path      string `arg:"" help:"File path (relative paths resolve under the sandbox home)"`
	Highlight bool   `help:"Syntax highlight the content" short:"H"`
}

// Run executes the read command
func (f *FilesReadCmd) Run(cli *CLI) error {
	content, err := cli.Container.Client.ReadFile(context.Background(), f.Path)
	if err != nil {
		return err
	}

	if !f.Highlight {
		fmt.Print(content)
		if !strings.HasSuffix(content, "\n") {
			fmt.Println()
		}
		return nil
	}

	renderer := ui.NewMarkdownRenderer(true)
	renderer.SetWidth(highlightWidth)
	fmt.Println(renderer.Highlight(content, domain.FileExtension(f.Path), highlightWidth))
	return nil
}
