package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "efivm <boot-image>",
	Short: "efivm - boot a UEFI image in a Hyper-V VM",
	Long: `efivm boots a UEFI application in a lightweight Hyper-V virtual machine
through the Host Compute Service and attaches the guest's COM1 serial
console to this terminal.

Boot an image:
  efivm C:\vm\boot.efi
  efivm C:\vm\boot.efi -d C:\vm\root.vhdx -d C:\iso\tools.iso -m 2048 -c 4

Type ~. at the start of a line to shut the VM down and exit, ~? for help.

List recorded launches:
  efivm ps

Remove stopped launch records:
  efivm prune`,
	Args:          cobra.ExactArgs(1),
	RunE:          runLaunch,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.efivm/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.Flags().StringArrayVarP(&launchDisks, "disks", "d", []string{}, "disk image to attach over SCSI (repeatable)")
	rootCmd.Flags().IntVarP(&launchMemory, "memory", "m", 1024, "memory in MB")
	rootCmd.Flags().IntVarP(&launchCores, "cores", "c", 2, "number of virtual processors")
	rootCmd.Flags().StringVar(&launchName, "name", "", "compute system name (default: <prefix>-<random>)")
}
