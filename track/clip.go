package track

import "fmt"

// Clip is a named set of tracks sharing one duration.
type Clip struct {
	Name   string
	Tracks []Track

	duration float32
	explicit bool
}

func NewClip(name string, tracks ...Track) *Clip {
	return &Clip{Name: name, Tracks: tracks}
}

// Duration returns the explicit duration if set, else the latest keyframe time.
func (c *Clip) Duration() float32 {
	if c.explicit {
		return c.duration
	}
	var d float32
	for _, tr := range c.Tracks {
		d = max(d, tr.LastTime())
	}
	return d
}

func (c *Clip) SetDuration(d float32) {
	c.duration = d
	c.explicit = true
}

func (c *Clip) HasExplicitDuration() bool { return c.explicit }

func (c *Clip) Add(tr Track) {
	c.Tracks = append(c.Tracks, tr)
}

// TransformTrack returns the first transform track animating target.
func (c *Clip) TransformTrack(target Target) (*TransformTrack, bool) {
	for _, tr := range c.Tracks {
		if t, ok := tr.(*TransformTrack); ok && t.Target == target {
			return t, true
		}
	}
	return nil, false
}

// JointTracks maps joint index to its transform track.
func (c *Clip) JointTracks() map[int]*TransformTrack {
	m := map[int]*TransformTrack{}
	for _, tr := range c.Tracks {
		if t, ok := tr.(*TransformTrack); ok && t.Target.IsJoint() {
			if _, dup := m[t.Target.Joint]; !dup {
				m[t.Target.Joint] = t
			}
		}
	}
	return m
}

// Validate checks every track and that no keyframe lies past the duration.
func (c *Clip) Validate() error {
	d := c.Duration()
	for _, tr := range c.Tracks {
		if t, ok := tr.(*TransformTrack); ok {
			if err := t.Validate(); err != nil {
				return fmt.Errorf("clip %q: %w", c.Name, err)
			}
		}
		if tr.LastTime() > d {
			return fmt.Errorf("clip %q: keyframe at %v past duration %v", c.Name, tr.LastTime(), d)
		}
	}
	return nil
}

func (c *Clip) Clone() *Clip {
	dst := &Clip{Name: c.Name, duration: c.duration, explicit: c.explicit}
	for _, tr := range c.Tracks {
		dst.Tracks = append(dst.Tracks, tr.CloneTrack())
	}
	return dst
}
