// cmd/train.go
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/cwendec/internal/clock"
	"github.com/ColonelBlimp/cwendec/internal/cw"
	"github.com/ColonelBlimp/cwendec/internal/trainer"
)

var (
	trainRounds int
	trainSeed   uint64
	trainShow   bool
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Practice copying random code groups",
	Long: `Sends a random group of characters on the output, then listens on the
input while you key it back. A group copied wrong is sent again.`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().IntVar(&trainRounds, "rounds", 0, "stop after this many groups (0 = until interrupted)")
	trainCmd.Flags().Uint64Var(&trainSeed, "seed", 0, "random seed (0 = seed from the clock)")
	trainCmd.Flags().BoolVar(&trainShow, "show", false, "print each group before it is sent")
	rootCmd.AddCommand(trainCmd)
}

// trainingSession alternates between sending a group and checking the copy
type trainingSession struct {
	trainer *trainer.Trainer
	enc     *cw.Encoder
	dec     *cw.Decoder
	clk     clock.Clock
	logger  *slog.Logger
	out     io.Writer
	delayMs int64
	show    bool

	sender *textSender // nil while the trainee is keying
	group  string

	okColor, badColor *color.Color
}

func newTrainingSession(tr *trainer.Trainer, enc *cw.Encoder, dec *cw.Decoder, clk clock.Clock, logger *slog.Logger, out io.Writer) *trainingSession {
	return &trainingSession{
		trainer:  tr,
		enc:      enc,
		dec:      dec,
		clk:      clk,
		logger:   logger,
		out:      out,
		okColor:  color.New(color.FgGreen),
		badColor: color.New(color.FgRed),
	}
}

// next deals a group and starts sending it
func (t *trainingSession) next() {
	t.group = t.trainer.Next()
	if t.show {
		fmt.Fprintf(t.out, "[%s] ", t.group)
	}
	t.sender = newTextSender(t.enc, t.clk, t.logger, t.group, t.delayMs)
}

// copying reports whether the session waits for the trainee
func (t *trainingSession) copying() bool {
	return t.sender == nil
}

// step runs one poll. It returns the verdict once a copied group is complete.
func (t *trainingSession) step() (trainer.Verdict, error) {
	t.dec.Decode()

	if t.sender != nil {
		done, err := t.sender.step()
		if err != nil {
			return trainer.Pending, err
		}
		// Anything decoded while sending is not the trainee's copy
		t.dec.Read()
		if done {
			t.sender = nil
			fmt.Fprint(t.out, "> ")
		}
		return trainer.Pending, nil
	}

	if !t.dec.Available() {
		return trainer.Pending, nil
	}
	r := t.dec.Read()
	if r == cw.WordSpace {
		return trainer.Pending, nil
	}
	fmt.Fprint(t.out, string(r))

	v := t.trainer.Check(r)
	switch v {
	case trainer.Correct:
		_, _ = t.okColor.Fprintln(t.out, "  ok")
	case trainer.Wrong:
		_, _ = t.badColor.Fprintf(t.out, "  wrong, sent %s\n", t.group)
	}
	return v, nil
}

func runTrain(cmd *cobra.Command, _ []string) error {
	s, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	cs, err := trainer.ParseCharSet(s.CharSet)
	if err != nil {
		return err
	}
	chars, err := trainer.Characters(cs, s.KochCount, s.KochSkip)
	if err != nil {
		return err
	}
	seed := trainSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	tr, err := trainer.New(chars, s.GroupSize, rand.New(rand.NewPCG(seed, seed>>1)))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := openSource(ctx, s, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	keyer, release, err := openKeyer(s, logger)
	if err != nil {
		return err
	}
	defer release()

	clk := clock.NewSystem()
	enc := cw.NewEncoder(keyer, clk)
	enc.SetSpeed(s.SenderWPM())
	dec := cw.NewDecoder(src, clk)
	dec.SetSpeed(s.WPM)

	out := cmd.OutOrStdout()
	session := newTrainingSession(tr, enc, dec, clk, logger, out)
	session.delayMs = int64(s.GroupDelayMs)
	session.show = trainShow
	logger.Info("training", "char_set", cs, "characters", string(chars), "group_size", s.GroupSize, "seed", seed)

	rounds := 0
	session.next()
	interval := time.Duration(s.PollIntervalMs) * time.Millisecond
	err = pollLoop(ctx, interval, func() (bool, error) {
		if err := src.Err(); err != nil {
			return false, err
		}
		v, err := session.step()
		if err != nil || v == trainer.Pending {
			return false, err
		}
		rounds++
		if trainRounds > 0 && rounds >= trainRounds {
			return true, nil
		}
		session.next()
		return false, nil
	})

	sent, correct := tr.Score()
	fmt.Fprintf(out, "\n%d of %d groups copied correctly\n", correct, sent)
	return err
}
