// Package series implements the series assembler (spec.md §4.8): it
// discovers a directory's DICOM slices, validates they describe one
// consistent volume, orders them along the slice normal, reconciles
// Z-spacing, and assembles a contiguous voxel buffer. Grounded on the
// teacher repo's pkg/dicos/volume.go Volume type and VolumeFromDataset
// assembly loop, generalized from the teacher's single-dataset conversion
// into a directory-wide, concurrency-aware pipeline per spec.md §5.
package series

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jpfielding/dcmvol/pkg/dcmvol"
	"github.com/jpfielding/dcmvol/pkg/dcmvol/dcmerr"
	"github.com/jpfielding/dcmvol/pkg/dcmvol/header"
	"github.com/jpfielding/dcmvol/pkg/dcmvol/seriesvalidate"
)

// Volume is the assembled 3D voxel buffer (spec.md §3 DATA MODEL).
type Volume struct {
	Voxels []int16
	Width, Height, Depth int

	SpacingX, SpacingY, SpacingZ float64

	// Orientation has columns (row, col, normal); identity if the series
	// carried no orientation tag.
	Orientation [3][3]float64

	OriginX, OriginY, OriginZ float64

	RescaleSlope, RescaleIntercept float64
	BitsAllocated                  int
	IsSigned                       bool
	Description                    string
}

// ProgressFunc is invoked after each slice is assembled, with the number of
// slices completed so far, the total, and the path just processed.
type ProgressFunc func(done, total int, path string)

const zSpacingTolerance = 0.2

type slice struct {
	path     string
	data     []byte
	geometry header.Geometry
	t        float64
	hasT     bool
}

// Load assembles every DICOM slice in dir into a single Volume.
func Load(ctx context.Context, dir string, progress ProgressFunc) (*Volume, error) {
	paths, err := discover(dir)
	if err != nil {
		return nil, dcmerr.NewIo(err)
	}

	slices, ref, err := validateAndCollect(paths)
	if err != nil {
		return nil, err
	}

	normal, hasOrientation := order(slices, ref)

	spacingZ := reconcileZSpacing(slices, ref)

	return assemble(ctx, slices, ref, normal, hasOrientation, spacingZ, progress)
}

// LoadConcurrent assembles multiple series directories concurrently, capped
// at maxConcurrency in flight, preserving the input order of dirs in the
// returned slices regardless of completion order.
func LoadConcurrent(ctx context.Context, dirs []string, maxConcurrency int, progress ProgressFunc) ([]*Volume, []error) {
	if maxConcurrency <= 0 {
		maxConcurrency = 2
	}
	volumes := make([]*Volume, len(dirs))
	errs := make([]error, len(dirs))

	sem := make(chan struct{}, maxConcurrency)
	done := make(chan int, len(dirs))

	for i, dir := range dirs {
		i, dir := i, dir
		go func() {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				errs[i] = dcmerr.NewCancelled()
				done <- i
				return
			}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				errs[i] = dcmerr.NewCancelled()
				done <- i
				return
			}
			v, err := Load(ctx, dir, progress)
			volumes[i] = v
			errs[i] = err
			done <- i
		}()
	}
	for range dirs {
		<-done
	}
	return volumes, errs
}

func discover(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != dir && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		ext := filepath.Ext(name)
		if ext == ".dcm" || ext == "" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func validateAndCollect(paths []string) ([]slice, seriesvalidate.Reference, error) {
	var slices []slice
	var ref seriesvalidate.Reference
	haveRef := false
	result := &seriesvalidate.Result{}

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		res, err := header.Walk(data)
		if err != nil {
			continue
		}

		if !haveRef {
			ref = seriesvalidate.NewReference(res.Geometry)
			haveRef = true
		}
		seriesvalidate.Check(result, ref, p, res.Geometry)

		slices = append(slices, slice{path: p, data: data, geometry: res.Geometry})
	}

	if !result.IsValid() {
		m := result.Mismatches[0]
		return nil, ref, dcmerr.NewInconsistent(m.Kind)
	}
	if len(slices) == 0 {
		return nil, ref, dcmerr.NewInvalidDicomFormat("no DICOM slices found")
	}
	return slices, ref, nil
}

// order computes the slice normal from the reference orientation, projects
// each slice's position onto it, and sorts slices in place ascending by
// that projection (falling back to InstanceNumber, then filename).
func order(slices []slice, ref seriesvalidate.Reference) (normal [3]float64, hasOrientation bool) {
	if ref.HasOrientation {
		normal = crossProduct(ref.OrientationRow, ref.OrientationCol)
		normal = normalizeVec(normal)
		hasOrientation = true
	}

	for i := range slices {
		if hasOrientation && slices[i].geometry.HasPosition {
			slices[i].t = dot(slices[i].geometry.ImagePositionPatient, normal)
			slices[i].hasT = true
		}
	}

	sort.SliceStable(slices, func(i, j int) bool {
		a, b := slices[i], slices[j]
		if a.hasT && b.hasT && a.t != b.t {
			return a.t < b.t
		}
		if a.hasT != b.hasT {
			return a.hasT
		}
		if a.geometry.HasInstanceNumber && b.geometry.HasInstanceNumber &&
			a.geometry.InstanceNumber != b.geometry.InstanceNumber {
			return a.geometry.InstanceNumber < b.geometry.InstanceNumber
		}
		return a.path < b.path
	})
	return normal, hasOrientation
}

func reconcileZSpacing(slices []slice, ref seriesvalidate.Reference) float64 {
	tagZ := 0.0
	for _, s := range slices {
		if s.geometry.HasSpacingZ {
			tagZ = s.geometry.SpacingZ
			break
		}
	}

	var positioned []float64
	for _, s := range slices {
		if s.hasT {
			positioned = append(positioned, s.t)
		}
	}

	if len(positioned) >= 2 {
		var sum float64
		for i := 1; i < len(positioned); i++ {
			sum += math.Abs(positioned[i] - positioned[i-1])
		}
		computed := sum / float64(len(positioned)-1)
		if tagZ > 0 && math.Abs(computed-tagZ) > zSpacingTolerance {
			return tagZ
		}
		return computed
	}
	return tagZ
}

func assemble(ctx context.Context, slices []slice, ref seriesvalidate.Reference, normal [3]float64, hasOrientation bool, spacingZ float64, progress ProgressFunc) (*Volume, error) {
	w, h, d := ref.Width, ref.Height, len(slices)
	vol := &Volume{
		Voxels:        make([]int16, w*h*d),
		Width:         w,
		Height:        h,
		Depth:         d,
		SpacingZ:      spacingZ,
		BitsAllocated: ref.BitDepth,
		IsSigned:      ref.PixelRepresentationSigned,
	}
	if hasOrientation {
		vol.Orientation = [3][3]float64{
			{ref.OrientationRow[0], ref.OrientationCol[0], normal[0]},
			{ref.OrientationRow[1], ref.OrientationCol[1], normal[1]},
			{ref.OrientationRow[2], ref.OrientationCol[2], normal[2]},
		}
	} else {
		vol.Orientation = [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	}

	for i, s := range slices {
		if ctx.Err() != nil {
			return nil, dcmerr.NewCancelled()
		}

		fd, err := dcmvol.FromBytes(s.data)
		if err != nil {
			return nil, dcmerr.NewFailedToDecode(s.path)
		}
		if i == 0 {
			vol.SpacingX = s.geometry.PixelSpacingX
			vol.SpacingY = s.geometry.PixelSpacingY
			vol.RescaleSlope = s.geometry.RescaleSlope
			vol.RescaleIntercept = s.geometry.RescaleIntercept
			if s.geometry.HasPosition {
				vol.OriginX, vol.OriginY, vol.OriginZ =
					s.geometry.ImagePositionPatient[0], s.geometry.ImagePositionPatient[1], s.geometry.ImagePositionPatient[2]
			}
		}

		pb, err := fd.Pixels()
		if err != nil {
			return nil, dcmerr.NewFailedToDecode(s.path)
		}
		if len(pb.Data) != w*h {
			return nil, dcmerr.NewFailedToDecode(s.path)
		}

		base := i * w * h
		for px, v := range pb.Data {
			var voxel int16
			if pb.IsSigned {
				voxel = int16(int32(v) + math.MinInt16)
			} else {
				voxel = int16(v)
			}
			vol.Voxels[base+px] = voxel
		}

		if progress != nil {
			progress(i+1, len(slices), s.path)
		}
	}

	return vol, nil
}

func crossProduct(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalizeVec(v [3]float64) [3]float64 {
	mag := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if mag == 0 {
		return v
	}
	return [3]float64{v[0] / mag, v[1] / mag, v[2] / mag}
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}
