// Package retarget transfers clips between joint hierarchies and keeps
// ground contact when a clip is edited.
package retarget

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/binzume/animedit/geom"
	"github.com/binzume/animedit/skeleton"
	"github.com/binzume/animedit/track"
)

var ErrNotImplemented = errors.New("not implemented")

type Options struct {
	// Tween samples the source tracks between their own keyframes.
	Tween track.TweenTransforms
}

func DefaultOptions() Options {
	return Options{Tween: track.DefaultTweenTransforms()}
}

// retargeter samples the source clip once per distinct keyframe time and
// keeps the resulting target poses for the joints that share that time.
type retargeter struct {
	sourceH *skeleton.Hierarchy
	target  *skeleton.Hierarchy
	mapping *skeleton.SkeletonMapping
	tracks  map[int]*track.TransformTrack
	curves  map[int]*track.TransformCurve
	times   []float32
	cache   map[int]*skeleton.Pose
}

func newRetargeter(source *track.Clip, sourceH, target *skeleton.Hierarchy, mapping *skeleton.SkeletonMapping, opts Options) (*retargeter, error) {
	if err := source.Validate(); err != nil {
		return nil, err
	}
	r := &retargeter{
		sourceH: sourceH,
		target:  target,
		mapping: mapping,
		tracks:  source.JointTracks(),
		curves:  map[int]*track.TransformCurve{},
		cache:   map[int]*skeleton.Pose{},
	}
	duration := source.Duration()
	for j, tr := range r.tracks {
		if j >= sourceH.NumJoints() {
			return nil, fmt.Errorf("clip %q: track for joint %d but hierarchy has %d joints", source.Name, j, sourceH.NumJoints())
		}
		r.curves[j] = opts.Tween.Precompute(tr, duration)
		r.times = append(r.times, tr.Times...)
	}
	slices.Sort(r.times)
	r.times = slices.Compact(r.times)
	return r, nil
}

// pose returns the target pose at the i-th distinct source keyframe time.
func (r *retargeter) pose(i int) *skeleton.Pose {
	if p, ok := r.cache[i]; ok {
		return p
	}
	src := skeleton.NewPose(r.sourceH)
	for j, c := range r.curves {
		src.SetUserTransform(j, c.Sample(r.times[i]))
	}
	p := skeleton.NewPose(r.target)
	p.SetToRetarget(src, r.mapping)
	r.cache[i] = p
	return p
}

// track builds the rotation track of target joint j, keyed like its mapped source track.
func (r *retargeter) track(j int) (*track.TransformTrack, bool) {
	name := r.target.Name(j)
	m, ok := r.mapping.Get(name)
	if !ok {
		return nil, false
	}
	sj, ok := r.sourceH.Find(m.Source)
	if !ok {
		slog.Warn("mapped source joint not found", "target", name, "source", m.Source)
		return nil, false
	}
	src, ok := r.tracks[sj]
	if !ok {
		slog.Debug("source joint not animated", "target", name, "source", m.Source)
		return nil, false
	}
	times := slices.Clone(src.Times)
	rotations := make([]geom.Quaternion, len(times))
	for k, t := range times {
		i, _ := slices.BinarySearch(r.times, t)
		rotations[k] = r.pose(i).UserTransform(j).Rotation
	}
	return track.NewTransformTrack(track.JointTarget(j), times,
		track.None[geom.Vector3](), track.Some(rotations), track.None[geom.Vector3]()), true
}

// Clip retargets source, animated on sourceH, onto target. Every mapped target
// joint whose source joint has a track gets a rotation track with the same key
// times. Node tracks are copied unchanged and the duration is kept.
func Clip(source *track.Clip, sourceH, target *skeleton.Hierarchy, mapping *skeleton.SkeletonMapping, opts Options) (*track.Clip, error) {
	for _, tr := range source.Tracks {
		if m, ok := tr.(*track.MorphTrack); ok {
			return nil, fmt.Errorf("retarget clip %q: morph track for %q: %w", source.Name, m.Node, ErrNotImplemented)
		}
	}
	r, err := newRetargeter(source, sourceH, target, mapping, opts)
	if err != nil {
		return nil, fmt.Errorf("retarget clip %q: %w", source.Name, err)
	}

	result := track.NewClip(source.Name)
	for _, tr := range source.Tracks {
		if t, ok := tr.(*track.TransformTrack); ok && !t.Target.IsJoint() {
			result.Add(t.Clone())
		}
	}
	for _, j := range target.PreOrder() {
		if tr, ok := r.track(j); ok {
			result.Add(tr)
		}
	}
	result.SetDuration(source.Duration())
	slog.Debug("retargeted clip", "name", source.Name, "tracks", len(result.Tracks), "poses", len(r.cache))
	return result, nil
}

// Track retargets a single target joint. ok is false when the joint is
// unmapped or its source joint is not animated.
func Track(source *track.Clip, sourceH, target *skeleton.Hierarchy, mapping *skeleton.SkeletonMapping, joint int, opts Options) (tr *track.TransformTrack, ok bool, err error) {
	if joint < 0 || joint >= target.NumJoints() {
		return nil, false, fmt.Errorf("retarget: joint %d out of range", joint)
	}
	r, err := newRetargeter(source, sourceH, target, mapping, opts)
	if err != nil {
		return nil, false, fmt.Errorf("retarget clip %q: %w", source.Name, err)
	}
	tr, ok = r.track(joint)
	return tr, ok, nil
}
