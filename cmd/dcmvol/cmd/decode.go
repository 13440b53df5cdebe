package cmd

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpfielding/dcmvol/pkg/dcmvol"
)

type decodeOutput struct {
	Metadata map[string]string `json:"metadata"`
	Geometry dcmvol.PixelBuffer `json:"pixel_buffer"`
}

// NewDecodeCmd decodes a single DICOM file's metadata and pixel data,
// grounded on the teacher's cmd/ctl/cmd/root.go NewDecodeCmd (the
// stdin/file/http(s) URI dispatch and --format flag are kept verbatim in
// shape; the payload printed is this module's Geometry/PixelBuffer instead
// of the teacher's Dataset).
func NewDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "decode a single DICOM file",
		Long:  "Parses one DICOM file and prints its metadata and decoded pixel buffer shape.",
		RunE: func(cmd *cobra.Command, args []string) error {
			uri, _ := cmd.Flags().GetString("uri")
			if uri == "" && len(args) > 0 {
				uri = args[0]
			}
			if uri == "" {
				return fmt.Errorf("a file path, - for stdin, or an http(s) URI is required")
			}

			data, err := readURI(uri, cmd)
			if err != nil {
				return err
			}

			d, err := dcmvol.FromBytes(data)
			if err != nil {
				return fmt.Errorf("decode: %w", err)
			}
			pb, err := d.Pixels()
			if err != nil {
				return fmt.Errorf("pixels: %w", err)
			}

			g := d.Geometry()
			out := decodeOutput{
				Metadata: map[string]string{
					"transfer_syntax": g.TransferSyntaxUID,
					"photometric":     g.PhotometricInterpretation,
				},
				Geometry: *pb,
			}

			switch format, _ := cmd.Flags().GetString("format"); format {
			case "text":
				fmt.Printf("%dx%d, %d samples/pixel, signed=%v, transfer_syntax=%s\n",
					pb.Width, pb.Height, pb.SamplesPerPixel, pb.IsSigned, g.TransferSyntaxUID)
			default:
				j, _ := json.Marshal(out)
				os.Stdout.Write(j)
			}
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("uri", "u", "", "file path, '-' for stdin, or an http(s) URI")
	pf.StringP("format", "f", "text", "output format (text|json)")
	return cmd
}

func readURI(uri string, cmd *cobra.Command) ([]byte, error) {
	var in io.Reader
	uri = strings.TrimPrefix(uri, "file://")
	switch {
	case uri == "-":
		in = os.Stdin
	case strings.HasPrefix(uri, "http"):
		cl := &http.Client{Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}}
		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, uri, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		resp, err := cl.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to download: %w", err)
		}
		defer resp.Body.Close()
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			reqDump, _ := httputil.DumpRequest(req, false)
			os.Stderr.Write(reqDump)
		}
		return io.ReadAll(resp.Body)
	default:
		f, err := os.Open(uri)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		in = f
	}
	return io.ReadAll(in)
}
