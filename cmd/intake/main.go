// Command intake runs the conversational listing intake in a terminal:
// describe the piso, answer whatever is still missing, review the ficha
// and save.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/rentmatch/intake/config"
	"github.com/rentmatch/intake/dialogue"
	"github.com/rentmatch/intake/extract"
	"github.com/rentmatch/intake/listing"
	"github.com/rentmatch/intake/sink"
	"github.com/rentmatch/intake/validate"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:          "intake",
		Short:        "Alta conversacional de pisos en alquiler",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return runChat(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	return cmd
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		slog.SetLogLoggerLevel(slog.LevelDebug)
	case "warn":
		slog.SetLogLoggerLevel(slog.LevelWarn)
	case "error":
		slog.SetLogLoggerLevel(slog.LevelError)
	default:
		slog.SetLogLoggerLevel(slog.LevelInfo)
	}
}

func runChat(ctx context.Context, cfg *config.Config) error {
	setLogLevel(cfg.Logging.Level)

	sc, err := listing.NewSchema(listing.WithRequired(cfg.Schema.ExtraRequired...))
	if err != nil {
		return err
	}

	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.Model.APIKey,
		Model:   cfg.Model.Name,
		BaseURL: cfg.Model.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("init chat model: %w", err)
	}

	opts := []extract.Option{extract.WithTimeout(cfg.Model.Timeout())}
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		opts = append(opts, extract.WithCache(extract.NewRedisCache[extract.Result](client, "intake:extract", 0)))
	}
	extractor, err := extract.New(cm, sc, opts...)
	if err != nil {
		return err
	}

	controller := dialogue.NewController(sc, extractor)
	saver := sink.NewSaver(
		sink.NewWebhook(cfg.Webhook.URL, cfg.Webhook.Timeout()),
		sink.NewDebugStore(cfg.Debug.CSVPath),
	)

	conv := dialogue.NewConversation()
	fmt.Println("Describe tu piso. Solo te preguntaremos lo imprescindible.")
	fmt.Println("Comandos: /ficha, /editar <campo> <valor>, /guardar, /otro, /salir")

	reader := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !reader.Scan() {
			return reader.Err()
		}
		line := strings.TrimSpace(reader.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/salir":
			return nil
		case line == "/otro":
			conv = dialogue.NewConversation()
			fmt.Println("Nueva conversación. Describe el piso.")
		case line == "/ficha":
			printFicha(sc, conv)
		case strings.HasPrefix(line, "/editar"):
			editField(controller, conv, strings.TrimSpace(strings.TrimPrefix(line, "/editar")))
		case line == "/guardar":
			save(ctx, sc, conv, saver)
		default:
			reply, err := controller.HandleUtterance(ctx, conv, line)
			if err != nil {
				fmt.Printf("No he podido analizar la descripción (%v). Vuelve a intentarlo.\n", err)
				continue
			}
			filled, total := controller.Progress(conv)
			fmt.Printf("%s  [%d/%d]\n", reply.Message, filled, total)
		}
	}
}

func editField(controller *dialogue.Controller, conv *dialogue.Conversation, args string) {
	key, raw, _ := strings.Cut(args, " ")
	if key == "" {
		fmt.Println("Uso: /editar <campo> <valor> (valor vacío borra el campo)")
		return
	}
	if err := controller.EditField(conv, key, raw); err != nil {
		fmt.Printf("No se pudo editar: %v\n", err)
		return
	}
	fmt.Printf("Campo %s actualizado.\n", key)
}

func printFicha(sc *listing.Schema, conv *dialogue.Conversation) {
	var buf strings.Builder
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Campo", "Valor", "Obligatorio")
	for _, f := range sc.Fields() {
		value := ""
		if v, ok := f.Value(conv.Listing); ok {
			value = fmt.Sprintf("%v", v)
		}
		required := ""
		if f.Required {
			required = "sí"
		}
		_ = table.Append(f.Key, value, required)
	}
	_ = table.Render()
	fmt.Println(buf.String())
	fmt.Println("Resumen:", listing.Summary(conv.Listing))

	for _, finding := range validate.Check(sc, conv.Listing) {
		fmt.Printf("%s: %s\n", finding.Severity, validate.Describe(finding))
	}
}

func save(ctx context.Context, sc *listing.Schema, conv *dialogue.Conversation, saver *sink.Saver) {
	ok, findings, missing := validate.CanSave(sc, conv.Listing)
	if !ok {
		if len(missing) > 0 {
			keys := make([]string, 0, len(missing))
			for _, f := range missing {
				keys = append(keys, f.Key)
			}
			fmt.Println("Faltan campos obligatorios:", strings.Join(keys, ", "))
		}
		for _, f := range validate.Errors(findings) {
			fmt.Println("Error:", validate.Describe(f))
		}
		return
	}
	for _, f := range findings {
		if f.Severity == validate.SeverityWarning {
			fmt.Println("Aviso:", validate.Describe(f))
		}
	}

	rec := sink.NewRecord(conv.Listing, conv.Description)
	outcome, err := saver.Save(ctx, rec)
	if outcome == sink.OutcomeDelivered {
		fmt.Println("Piso guardado correctamente.")
		return
	}
	fmt.Printf("El piso se ha conservado en local, pero el envío falló (%s): %v\n", outcome, err)
}
