package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/habiliai/secondbrain"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newCmd() *cobra.Command {
	var (
		memoryPath string
		vaultPath  string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "secondbrain",
		Short: "Personal assistant over your notes, the web and long-term memory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				return err
			}

			runtime, err := secondbrain.New(
				cmd.Context(),
				secondbrain.WithOpenAIAPIKey(os.Getenv("OPENAI_API_KEY")),
				secondbrain.WithTavilyAPIKey(os.Getenv("TAVILY_API_KEY")),
				secondbrain.WithYouTubeAPIKey(os.Getenv("YOUTUBE_API_KEY")),
				secondbrain.WithMemoryPath(memoryPath),
				secondbrain.WithVaultPath(vaultPath),
				secondbrain.WithTraceVerbose(verbose),
			)
			if err != nil {
				return err
			}
			defer runtime.Close()

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				query := strings.TrimSpace(scanner.Text())
				if query == "" {
					continue
				}
				if query == "exit" || query == "quit" {
					return nil
				}

				state, err := runtime.Ask(cmd.Context(), query, func(step string) {
					if verbose {
						fmt.Println("  [" + step + "]")
					}
				})
				if err != nil {
					fmt.Fprintln(os.Stderr, "error:", err)
					continue
				}
				fmt.Println(state.FinalAnswer)
			}
		},
	}

	cmd.Flags().StringVar(&memoryPath, "memory", ".secondbrain/memory.db", "path to the memory database")
	cmd.Flags().StringVar(&vaultPath, "vault", os.Getenv("VAULT_PATH"), "path to the markdown notes vault")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline trace steps")

	return cmd
}
