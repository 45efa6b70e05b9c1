package ui

import (
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/portal-login/v2/core"
)

var sceneBackground = color.NRGBA{R: 0x12, G: 0x14, B: 0x22, A: 0xff}

// SceneView draws a core.Scene as wireframe lines and animates it while started.
type SceneView struct {
	widget.BaseWidget

	scene   *core.Scene
	anim    *fyne.Animation
	running bool
}

func NewSceneView(scene *core.Scene) *SceneView {
	v := &SceneView{scene: scene}
	v.ExtendBaseWidget(v)

	// The duration only matters for the curve; the tick runs once per frame.
	v.anim = fyne.NewAnimation(time.Second, func(float32) {
		v.scene.Step()
		v.Refresh()
	})
	v.anim.RepeatCount = fyne.AnimationRepeatForever
	v.anim.Curve = fyne.AnimationLinear
	return v
}

// Start begins rotating the shapes.
func (v *SceneView) Start() {
	if v.running {
		return
	}
	v.running = true
	v.anim.Start()
}

// Stop freezes the scene.
func (v *SceneView) Stop() {
	if !v.running {
		return
	}
	v.running = false
	v.anim.Stop()
}

func (v *SceneView) Running() bool {
	return v.running
}

func (v *SceneView) CreateRenderer() fyne.WidgetRenderer {
	r := &sceneRenderer{
		view:       v,
		background: canvas.NewRectangle(sceneBackground),
	}
	r.objects = append(r.objects, r.background)

	for _, shape := range v.scene.Shapes {
		lines := make([]*canvas.Line, len(shape.Edges))
		for i := range lines {
			line := canvas.NewLine(shape.Color)
			line.StrokeWidth = 1.5
			lines[i] = line
			r.objects = append(r.objects, line)
		}
		r.lines = append(r.lines, lines)
	}
	return r
}

type sceneRenderer struct {
	view       *SceneView
	background *canvas.Rectangle
	lines      [][]*canvas.Line
	objects    []fyne.CanvasObject
	size       fyne.Size
}

func (r *sceneRenderer) Layout(size fyne.Size) {
	r.size = size
	r.background.Move(fyne.NewPos(0, 0))
	r.background.Resize(size)
	r.updateLines()
}

func (r *sceneRenderer) MinSize() fyne.Size {
	return fyne.NewSize(320, 240)
}

func (r *sceneRenderer) Refresh() {
	r.updateLines()
}

func (r *sceneRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *sceneRenderer) Destroy() {}

// updateLines projects every edge against the current size.
func (r *sceneRenderer) updateLines() {
	w, h := float64(r.size.Width), float64(r.size.Height)
	if w <= 0 || h <= 0 {
		return
	}
	cam := r.view.scene.Camera

	for i, shape := range r.view.scene.Shapes {
		if i >= len(r.lines) {
			break
		}
		lines := r.lines[i]
		for j, edge := range shape.WorldEdges() {
			if j >= len(lines) {
				break
			}
			line := lines[j]
			x1, y1, ok1 := cam.Project(edge.A, w, h)
			x2, y2, ok2 := cam.Project(edge.B, w, h)
			if !ok1 || !ok2 {
				line.Hide()
				continue
			}
			line.Position1 = fyne.NewPos(float32(x1), float32(y1))
			line.Position2 = fyne.NewPos(float32(x2), float32(y2))
			line.Show()
			line.Refresh()
		}
	}
}
