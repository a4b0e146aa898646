// cmd/devices.go
package cmd

import (
	"fmt"
	"io"

	"github.com/gen2brain/malgo"
	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/cwendec/internal/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio capture and playback devices",
	Long: `Lists the audio devices with the index to use for device_index. The same
index selects the capture device for audio input and the playback device
for the sidetone.`,
	Args: cobra.NoArgs,
	RunE: runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, _ []string) error {
	s, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	capture := audio.NewCapture(audio.DefaultConfig(), logger)
	if err := capture.Init(); err != nil {
		return err
	}
	defer capture.Close()
	inputs, err := capture.ListDevices()
	if err != nil {
		return err
	}
	printDevices(out, "Capture", inputs, s.DeviceIndex)

	gen, err := newToneGenerator(s, s.SampleRate)
	if err != nil {
		return err
	}
	tone := audio.NewSidetone(audio.DefaultConfig(), gen, logger)
	if err := tone.Init(); err != nil {
		return err
	}
	defer tone.Close()
	outputs, err := tone.ListDevices()
	if err != nil {
		return err
	}
	printDevices(out, "Playback", outputs, s.DeviceIndex)
	return nil
}

// printDevices lists devices, marking the configured one
func printDevices(w io.Writer, title string, devices []malgo.DeviceInfo, selected int) {
	fmt.Fprintf(w, "%s devices:\n", title)
	if len(devices) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for i, d := range devices {
		mark := " "
		if i == selected {
			mark = "*"
		}
		def := ""
		if d.IsDefault != 0 {
			def = " (default)"
		}
		fmt.Fprintf(w, "%s %d: %s%s\n", mark, i, d.Name(), def)
	}
}
