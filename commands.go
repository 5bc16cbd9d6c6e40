package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/duynguyendang/gerd/internal/manager"
	"github.com/duynguyendang/gerd/pkg/catalog"
	"github.com/duynguyendang/gerd/pkg/mcp"
	"github.com/duynguyendang/gerd/pkg/repl"
	"github.com/duynguyendang/gerd/pkg/server"
	"github.com/duynguyendang/gerd/pkg/service"
	"github.com/spf13/cobra"
)

var (
	templatePath string
	templateName string
	asJSON       bool
)

var decompileCmd = &cobra.Command{
	Use:   "decompile <event.xml>...",
	Short: "Decompile event rule documents to pseudocode",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDecompile,
}

var importCmd = &cobra.Command{
	Use:   "import <catalog.yaml>",
	Short: "Load a catalog manifest into an environment",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API server",
	RunE:  runServe,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the decompiler over MCP on stdio",
	RunE:  runMCP,
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	RunE:  runRepl,
}

func init() {
	decompileCmd.Flags().StringVarP(&templatePath, "template", "t", "", "data structure template XML file")
	decompileCmd.Flags().StringVar(&templateName, "template-name", "", "catalog template to use when --template is not given")
	decompileCmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
}

func runDecompile(cmd *cobra.Command, args []string) error {
	req := service.DecompileRequest{Environment: envName, TemplateName: templateName}
	for _, p := range args {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		req.Events = append(req.Events, string(data))
	}
	if templatePath != "" {
		data, err := os.ReadFile(templatePath)
		if err != nil {
			return fmt.Errorf("failed to read template: %w", err)
		}
		req.TemplateXML = string(data)
	}

	mgr := newManager()
	defer mgr.CloseAll()

	res, err := service.NewDecompileService(mgr).Decompile(cmd.Context(), req)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	fmt.Fprint(cmd.OutOrStdout(), res.ReadableText)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	m, err := catalog.LoadManifest(args[0])
	if err != nil {
		return err
	}
	env := envName
	if env == "" {
		env = m.Environment
	}
	if env == "" {
		return fmt.Errorf("no environment: pass --env or set 'environment' in %s", args[0])
	}

	readOnly = false
	mgr := newManager()
	defer mgr.CloseAll()

	st, err := mgr.CreateEnvironment(manager.EnvironmentMetadata{ID: env, Name: env, Description: m.Description})
	if err != nil {
		return err
	}
	stats, err := st.Import(m)
	if err != nil {
		return fmt.Errorf("import into %s failed: %w", env, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported into %s: %d templates, %d tables, %d titles, %d business functions\n",
		env, stats.Templates, stats.Tables, stats.Titles, stats.BusinessFunctions)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("Starting REST API Server. Data directory: %s\n", dataDir)

	mgr := newManager()
	defer mgr.CloseAll()

	srv := server.NewServer(service.NewDecompileService(mgr))
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := srv.Run(":" + port); err != nil {
		log.Printf("Server failed: %v", err)
		return err
	}
	return nil
}

func runMCP(cmd *cobra.Command, args []string) error {
	mgr := newManager()
	defer mgr.CloseAll()

	return mcp.Run(context.Background(), service.NewDecompileService(mgr))
}

func runRepl(cmd *cobra.Command, args []string) error {
	mgr := newManager()
	defer mgr.CloseAll()

	repl.Run(cmd.Context(), os.Stdin, os.Stdout, service.NewDecompileService(mgr), envName)
	return nil
}
