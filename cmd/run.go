package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/landonvance1/BookSharingApp/pkg/fileurl"

	"github.com/radovskyb/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type runFlags struct {
	dir    string // working directory
	config string // configuration file path
}

func init() {
	runEnv := new(runFlags)

	var runCommand = &cobra.Command{
		Use:   "run [-c config_file] [-d working_dir]",
		Short: "Run the client core daemon",
		Run: func(cmd *cobra.Command, args []string) {
			if len(runEnv.dir) > 0 {
				err := os.Chdir(runEnv.dir)
				if err != nil {
					bootstrapLogger.Error("failed to change the current working directory", zap.Error(err))
				}
				bootstrapLogger.Info("working directory changed", zap.String("dir", runEnv.dir))
			}

			if len(runEnv.config) <= 0 {
				if fileurl.IsExist("config/config-dev.yaml") {
					runEnv.config = "config/config-dev.yaml"
				} else if fileurl.IsExist("config.yaml") {
					runEnv.config = "config.yaml"
				} else if fileurl.IsExist("config/config.yaml") {
					runEnv.config = "config/config.yaml"
				} else {

					bootstrapLogger.Warn("config file not found, creating default config")
					runEnv.config = "config/config.yaml"

					if err := fileurl.CreatePath(runEnv.config, os.ModePerm); err != nil {
						bootstrapLogger.Error("config file auto create error", zap.Error(err))
						return
					}

					file, err := os.OpenFile(runEnv.config, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
					if err != nil {
						bootstrapLogger.Error("config file auto create error", zap.Error(err))
						return
					}
					defer file.Close()
					_, err = file.WriteString(configDefault)
					if err != nil {
						bootstrapLogger.Error("config file auto create writing error", zap.Error(err))
						return
					}
					bootstrapLogger.Info("config file auto create successfully", zap.String("path", runEnv.config))

				}
			}

			c, err := NewCore(runEnv)
			if err != nil {
				bootstrapLogger.Error("core start err", zap.Error(err))
				return
			}

			go func() {

				w := watcher.New()

				// one event per listening cycle is enough to trigger a reload
				w.SetMaxEvents(1)
				w.FilterOps(watcher.Write)

				go func() {
					for {
						select {
						case event := <-w.Event:

							c.logger.Info("config watcher change", zap.String("event", event.Op.String()), zap.String("file", event.Path))
							c.sc.SendCloseSignal(nil)

							// re-initialize the core with the new config
							c, err = NewCore(runEnv)
							if err != nil {
								bootstrapLogger.Error("core start err", zap.Error(err))
								continue
							}

						case err := <-w.Error:
							c.logger.Error("config watcher error", zap.Error(err))
						case <-w.Closed:
							bootstrapLogger.Info("config watcher closed")
						}
					}
				}()

				if err := w.Add(runEnv.config); err != nil {
					c.logger.Error("config watcher file error", zap.Error(err))
				}

				if err := w.Start(time.Second * 5); err != nil {
					c.logger.Error("config watcher start error", zap.Error(err))
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			<-quit
			c.logger.Info("Received shutdown signal, initiating graceful shutdown...")
			c.sc.SendCloseSignal(nil)

			if err := c.sc.WaitClosed(); err != nil {
				c.logger.Error("Shutdown completed with error", zap.Error(err))
			} else {
				c.logger.Info("Core has been shut down gracefully.")
			}

		},
	}

	rootCmd.AddCommand(runCommand)
	fs := runCommand.Flags()
	fs.StringVarP(&runEnv.dir, "dir", "d", "", "run dir")
	fs.StringVarP(&runEnv.config, "config", "c", "", "config file")

}
