package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/javi11/arcindex"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <path>...",
		Short: "List the members of archives and loose images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := a.index(cmd.Context(), args)
			if a.jsonOut {
				if jerr := a.printer.JSON(results); jerr != nil {
					return jerr
				}
				return err
			}
			for _, r := range results {
				a.printer.Members(r.Path, r.Archive, r.Archive.Members)
			}
			return err
		},
	}
}

type infoResult struct {
	Path string               `json:"path"`
	Info arcindex.ArchiveInfo `json:"info"`
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <path>...",
		Short: "Summarize archives",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := a.index(cmd.Context(), args)
			infos := make([]infoResult, 0, len(results))
			for _, r := range results {
				infos = append(infos, infoResult{Path: r.Path, Info: r.Archive.Info()})
			}
			if a.jsonOut {
				if jerr := a.printer.JSON(infos); jerr != nil {
					return jerr
				}
				return err
			}
			for _, i := range infos {
				a.printer.Info(i.Path, i.Info)
			}
			return err
		},
	}
}

type findResult struct {
	Path    string                `json:"path"`
	Members []arcindex.MemberFile `json:"members"`

	archive *arcindex.Archive
}

func newFindCmd(a *app) *cobra.Command {
	var name, ext string
	var images bool

	cmd := &cobra.Command{
		Use:   "find <path>...",
		Short: "Find members by name, extension or image type",
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if name == "" && ext == "" && !images {
				return errors.New("one of --name, --ext or --images is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := a.index(cmd.Context(), args)
			var found []findResult
			for _, r := range results {
				var members []arcindex.MemberFile
				switch {
				case name != "":
					if m, ok := r.Archive.FindByName(name); ok {
						members = append(members, m)
					}
				case ext != "":
					members = r.Archive.FindByExtension(ext)
				default:
					members = r.Archive.Images()
				}
				if len(members) > 0 {
					found = append(found, findResult{Path: r.Path, Members: members, archive: r.Archive})
				}
			}
			if a.jsonOut {
				if jerr := a.printer.JSON(found); jerr != nil {
					return jerr
				}
				return err
			}
			for _, f := range found {
				a.printer.Members(f.Path, f.archive, f.Members)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "member path or base name (case-insensitive)")
	cmd.Flags().StringVar(&ext, "ext", "", "member extension")
	cmd.Flags().BoolVar(&images, "images", false, "members with an image extension")
	return cmd
}
