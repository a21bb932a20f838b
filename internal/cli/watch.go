package cli

import (
	"fundguard/internal/app"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Постоянная проверка: снапшот, лента ордеров, метрики",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		a, err := app.Build(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		log.Info("Fundguard запущен.")
		if err := a.Run(ctx); err != nil {
			log.WithError(err).Error("Fundguard завершился с ошибкой.")
			return err
		}
		log.Info("Fundguard остановлен.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
