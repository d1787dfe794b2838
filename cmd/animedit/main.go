package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"

	"github.com/binzume/animedit/config"
	"github.com/binzume/animedit/gltfio"
	"github.com/binzume/animedit/retarget"
	"github.com/binzume/animedit/skeleton"
	"github.com/binzume/animedit/track"
)

func defaultOutputFile(input string) string {
	ext := filepath.Ext(input)
	return input[0:len(input)-len(ext)] + ".retarget.glb"
}

func defaultConfigFile(input string) string {
	confFile := input[0:len(input)-len(filepath.Ext(input))] + ".animedit.yaml"
	if _, err := os.Stat(confFile); err != nil {
		return ""
	}
	return confFile
}

type model struct {
	doc    *gltf.Document
	h      *skeleton.Hierarchy
	joints []uint32
}

func loadModel(path string, skin uint32) (*model, error) {
	doc, err := gltfio.Open(path)
	if err != nil {
		return nil, err
	}
	h, joints, err := gltfio.ImportHierarchy(doc, skin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &model{doc: doc, h: h, joints: joints}, nil
}

// skinnedMesh returns the first skinned mesh node of the model.
func (m *model) skinnedMesh() (*skeleton.SkinnedMesh, error) {
	for i, n := range m.doc.Nodes {
		if n.Mesh != nil && n.Skin != nil {
			return gltfio.ImportSkinnedMesh(m.doc, uint32(i))
		}
	}
	return nil, fmt.Errorf("no skinned mesh")
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] target.glb source.glb [output.glb]\n", os.Args[0])
		flag.PrintDefaults()
	}
	confFile := flag.String("config", "", "retarget config (.yaml)")
	skin := flag.Uint("skin", 0, "skin index of both models")
	animIndex := flag.Int("anim", -1, "source animation index (-1: all)")
	start := flag.Float64("start", 0, "drop keyframes before this time")
	end := flag.Float64("end", 0, "drop keyframes after this time (0: keep)")
	inPlace := flag.Bool("inplace", false, "remove root translation drift")
	verbose := flag.Bool("v", false, "verbose log")
	flag.Parse()

	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
	if flag.NArg() < 2 {
		flag.Usage()
		return
	}
	targetFile, sourceFile := flag.Arg(0), flag.Arg(1)
	output := defaultOutputFile(targetFile)
	if flag.NArg() > 2 {
		output = flag.Arg(2)
	}
	if *confFile == "" {
		*confFile = defaultConfigFile(targetFile)
	}

	conf := config.Default()
	if *confFile != "" {
		var err error
		if conf, err = config.Load(*confFile); err != nil {
			log.Fatal(err)
		}
		log.Print("config: ", *confFile)
	}

	target, err := loadModel(targetFile, uint32(*skin))
	if err != nil {
		log.Fatal(err)
	}
	source, err := loadModel(sourceFile, uint32(*skin))
	if err != nil {
		log.Fatal(err)
	}

	e, err := newEditor(conf, target, source)
	if err != nil {
		log.Fatal(err)
	}
	e.start, e.end, e.inPlace = float32(*start), float32(*end), *inPlace

	for i := range source.doc.Animations {
		if *animIndex >= 0 && i != *animIndex {
			continue
		}
		clip, err := gltfio.ImportClip(source.doc, uint32(i), source.h, source.joints)
		if err != nil {
			log.Fatal(err)
		}
		result, err := e.process(clip)
		if err != nil {
			log.Fatal(err)
		}
		if _, err := gltfio.ExportClip(target.doc, result, target.h, target.joints); err != nil {
			log.Fatal(err)
		}
		log.Printf("animation %q: %d tracks, %.2fs", result.Name, len(result.Tracks), result.Duration())
	}

	log.Print("out: ", output)
	if err := gltfio.SaveBinary(target.doc, output); err != nil {
		log.Fatal(err)
	}
}

// editor applies the configured pipeline to each source clip.
type editor struct {
	conf    *config.Config
	target  *model
	source  *model
	mapping *skeleton.SkeletonMapping
	tween   track.TweenTransforms
	mesh    *skeleton.SkinnedMesh

	start, end float32
	inPlace    bool
}

func newEditor(conf *config.Config, target, source *model) (*editor, error) {
	tween, err := conf.Tween()
	if err != nil {
		return nil, err
	}
	mapping, err := conf.Mapping(target.h, source.h)
	if err != nil {
		return nil, err
	}
	e := &editor{
		conf:    conf,
		target:  target,
		source:  source,
		mapping: mapping,
		tween:   tween,
	}
	if e.mapping.Len() == 0 {
		return nil, fmt.Errorf("no joints mapped")
	}
	if conf.Support != nil {
		if e.mesh, err = target.skinnedMesh(); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *editor) process(clip *track.Clip) (*track.Clip, error) {
	result, err := retarget.Clip(clip, e.source.h, e.target.h, e.mapping, retarget.Options{Tween: e.tween})
	if err != nil {
		return nil, err
	}
	if e.conf.Name != "" {
		result.Name = e.conf.Name
	}
	result = e.trim(result)

	smooth, width := e.conf.Smooth()
	if width > 0 {
		d := result.Duration()
		for i, tr := range result.Tracks {
			if t, ok := tr.(*track.TransformTrack); ok {
				result.Tracks[i] = track.Smooth(t, d, width, smooth)
			}
		}
	}

	if e.inPlace {
		for i, tr := range result.Tracks {
			t, ok := tr.(*track.TransformTrack)
			if !ok || !t.Translations.Present() || (t.Target.IsJoint() && e.target.h.Parent(t.Target.Joint) >= 0) {
				continue
			}
			if fixed, ok := track.InPlace(t); ok {
				result.Tracks[i] = fixed
			}
		}
	}

	if e.mesh != nil {
		result = e.fixSupport(result)
	}
	return result, nil
}

// trim keeps the keyframes between start and end.
func (e *editor) trim(clip *track.Clip) *track.Clip {
	if e.start <= 0 && e.end <= 0 {
		return clip
	}
	d := clip.Duration()
	end := d
	if e.end > 0 && e.end < d {
		end = e.end
	}
	out := track.NewClip(clip.Name)
	for _, tr := range clip.Tracks {
		t, ok := tr.(*track.TransformTrack)
		if !ok {
			if m, ok := tr.(*track.MorphTrack); ok {
				if m = trimMorph(m, e.start, end); m != nil {
					out.Add(m)
				}
			}
			continue
		}
		if end < t.LastTime() {
			t = track.Truncate(t, end, e.tween)
		}
		if e.start > 0 {
			t = track.Behead(t, e.start, e.tween)
		}
		out.Add(t)
	}
	out.SetDuration(max(end-e.start, 0))
	return out
}

func trimMorph(m *track.MorphTrack, start, end float32) *track.MorphTrack {
	out := &track.MorphTrack{Node: m.Node}
	for i, t := range m.Times {
		if t >= start && t <= end {
			out.Times = append(out.Times, t-start)
			out.Weights = append(out.Weights, m.Weights[i])
		}
	}
	if len(out.Times) == 0 {
		return nil
	}
	return out
}

// fixSupport moves the root so that the support vertex keeps its height.
func (e *editor) fixSupport(clip *track.Clip) *track.Clip {
	joint, err := e.conf.SupportJoint(e.target.h)
	if err != nil {
		log.Print(err)
		return clip
	}
	vertex := e.conf.Support.Vertex
	if vertex < 0 {
		v, ok := retarget.LowestVertex(skeleton.NewPose(e.target.h), e.mesh, joint)
		if !ok {
			log.Print("no vertex influenced by support joint ", e.conf.Support.Joint)
			return clip
		}
		vertex = v
	}
	fixed, ok := retarget.FixSupport(clip, e.target.h, e.mesh, e.target.h.Roots()[0], vertex, e.conf.Support.Delta, e.tween)
	if !ok {
		log.Print("support correction not possible for ", clip.Name)
		return clip
	}
	return fixed
}
