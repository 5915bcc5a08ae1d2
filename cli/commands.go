package cli

import (
	"github.com/spf13/cobra"

	"github.com/interview-coach/behavior-pipeline/config"
	"github.com/interview-coach/behavior-pipeline/orchestrator"
)

// NewRootCommand builds the combined binary with one subcommand per modality.
func NewRootCommand() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "behavior",
		Short: "Score vocal tone, facial expression and posture in interview recordings",
	}
	o.bind(root)
	root.AddCommand(
		audioCommand(o, "audio"),
		videoCommand(o, "face", orchestrator.ModalityFacial, "Score facial action units of a video"),
		videoCommand(o, "pose", orchestrator.ModalityPosture, "Score body posture and gestures of a video"),
		allCommand(o),
		configCommand(o),
	)
	return root
}

// NewAudioCommand is the standalone vocal scorer: `<use> <file>`.
func NewAudioCommand(use string) *cobra.Command {
	o := &options{}
	cmd := audioCommand(o, use)
	o.bind(cmd)
	return cmd
}

// NewFaceCommand is the standalone facial scorer: `<use> --video <file>`.
func NewFaceCommand(use string) *cobra.Command {
	o := &options{}
	cmd := videoCommand(o, use, orchestrator.ModalityFacial, "Score facial action units of a video")
	o.bind(cmd)
	return cmd
}

// NewPoseCommand is the standalone posture scorer: `<use> --video <file>`.
func NewPoseCommand(use string) *cobra.Command {
	o := &options{}
	cmd := videoCommand(o, use, orchestrator.ModalityPosture, "Score body posture and gestures of a video")
	o.bind(cmd)
	return cmd
}

func audioCommand(o *options, use string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <file>",
		Short: "Score vocal tone of an audio or video file",
		Args:  cobra.ArbitraryArgs, // extra arguments are ignored
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return &UserError{Msg: "用法：" + cmd.CommandPath() + " <音频文件路径>"}
			}
			return o.run(cmd, orchestrator.ModalityVocal, args[0])
		},
	}
}

func videoCommand(o *options, use string, m orchestrator.Modality, short string) *cobra.Command {
	var video string
	cmd := &cobra.Command{
		Use:   use + " --video <file>",
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, m, video)
		},
	}
	cmd.Flags().StringVar(&video, "video", "", "path to the input video file")
	_ = cmd.MarkFlagRequired("video")
	return cmd
}

func allCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "all <file>",
		Short: "Run vocal, facial and posture scoring and join the verdicts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, orchestrator.ModalityAll, args[0])
		},
	}
}

func configCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, _, err := o.load(cmd)
			if err != nil {
				return err
			}
			out, err := config.Dump(conf)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
