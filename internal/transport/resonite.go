// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"auralight/internal/layout"
	"auralight/internal/log"
)

const (
	idPrefix       = "AL_"
	lightComponent = "[FrooxEngine]FrooxEngine.PointLight"
	spaceComponent = "[FrooxEngine]FrooxEngine.DynamicVariableSpace"

	dialTimeout  = 5 * time.Second
	writeTimeout = 5 * time.Second

	// Default point light range in meters.
	lightRange = 10.0

	// Host-side lights read dimmer than the pattern engine's [0,1] scale, so
	// intensity is doubled on the wire.
	intensityScale = 2.0
)

// typedValue is a ResoniteLink wire value: a payload tagged with its type.
type typedValue struct {
	Type  string `json:"$type"`
	Value any    `json:"value"`
}

// reference points at another object by id.
type reference struct {
	Type     string `json:"$type"`
	TargetID string `json:"targetId"`
}

type wireVec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type wireQuat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

func refVal(targetID string) reference {
	return reference{Type: "reference", TargetID: targetID}
}

func float3Val(x, y, z float64) typedValue {
	return typedValue{Type: "float3", Value: wireVec3{X: x, Y: y, Z: z}}
}

func floatQVal(q wireQuat) typedValue {
	return typedValue{Type: "floatQ", Value: q}
}

func strVal(s string) typedValue {
	return typedValue{Type: "string", Value: s}
}

func floatVal(v float64) typedValue {
	return typedValue{Type: "float", Value: v}
}

// ResoniteClient speaks the ResoniteLink protocol over a websocket. It builds
// a slot hierarchy Root -> one slot per light with a PointLight component,
// pushes updateComponent messages for color and intensity, and removes the
// whole hierarchy on teardown.
//
// Writes are serialized with a mutex. Responses from the host are drained by
// a background reader and logged at debug level; no operation waits for an
// acknowledgement.
type ResoniteClient struct {
	url  string
	conn *websocket.Conn

	mu      sync.Mutex
	rootID  string
	slotIDs []string
	compIDs []string
}

var _ Client = (*ResoniteClient)(nil)

// Dial connects to a ResoniteLink endpoint and creates the root slot that
// will parent every light.
func Dial(url string) (*ResoniteClient, error) {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", url, err)
	}

	c := &ResoniteClient{url: url, conn: conn}
	go c.readLoop()

	if err := c.createRoot(); err != nil {
		conn.Close()
		return nil, err
	}
	log.Infof("Connected to %s (root slot %s)", url, c.rootID)
	return c, nil
}

// readLoop drains host responses so control frames are processed and the
// read buffer never fills. ResoniteLink acknowledgements carry no state the
// client needs.
func (c *ResoniteClient) readLoop() {
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				log.Debugf("Transport read loop ended: %v", err)
			}
			return
		}
		log.Debugf("Host response: %s", payload)
	}
}

func (c *ResoniteClient) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("transport: encode: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("transport: send: %w", err)
	}
	return nil
}

func newID(kind string, index int) string {
	return fmt.Sprintf("%s%s_%d_%08x", idPrefix, kind, index, rand.Uint32())
}

func (c *ResoniteClient) createRoot() error {
	rootID := fmt.Sprintf("%sRoot_%08x", idPrefix, rand.Uint32())

	err := c.send(map[string]any{
		"$type": "addSlot",
		"data": map[string]any{
			"id":     rootID,
			"parent": refVal("Root"),
			"name":   strVal("Audio Lights"),
		},
	})
	if err != nil {
		return err
	}

	// A DynamicVariableSpace on the root lets in-world tooling find and tag
	// the hierarchy.
	err = c.send(map[string]any{
		"$type":           "addComponent",
		"containerSlotId": rootID,
		"data": map[string]any{
			"id":            fmt.Sprintf("%sSpace_%08x", idPrefix, rand.Uint32()),
			"componentType": spaceComponent,
			"members": map[string]any{
				"SpaceName": strVal("AudioLights"),
			},
		},
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.rootID = rootID
	c.mu.Unlock()
	return nil
}

// CreateLight adds one slot under the root with a PointLight component at the
// light's layout position.
func (c *ResoniteClient) CreateLight(light layout.Light) (Handle, error) {
	slotID := newID("Light", light.GlobalIndex)
	compID := newID("Comp", light.GlobalIndex)

	err := c.send(map[string]any{
		"$type": "addSlot",
		"data": map[string]any{
			"id":       slotID,
			"parent":   refVal(c.rootID),
			"name":     strVal(fmt.Sprintf("Light_%s_%d", light.Zone, light.ZoneIndex)),
			"position": float3Val(light.Position.X, light.Position.Y, light.Position.Z),
		},
	})
	if err != nil {
		return 0, err
	}

	err = c.send(map[string]any{
		"$type":           "addComponent",
		"containerSlotId": slotID,
		"data": map[string]any{
			"id":            compID,
			"componentType": lightComponent,
			"members": map[string]any{
				"Color":     float3Val(1, 0.5, 0.2),
				"Intensity": floatVal(1.0),
				"Range":     floatVal(lightRange),
			},
		},
	})
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.slotIDs = append(c.slotIDs, slotID)
	c.compIDs = append(c.compIDs, compID)
	h := Handle(len(c.compIDs) - 1)
	c.mu.Unlock()
	return h, nil
}

// UpdateLight pushes new color and intensity for one light, plus a slot
// rotation when the update carries a yaw.
func (c *ResoniteClient) UpdateLight(h Handle, u Update) error {
	c.mu.Lock()
	if int(h) < 0 || int(h) >= len(c.compIDs) {
		c.mu.Unlock()
		return fmt.Errorf("transport: unknown light handle %d", h)
	}
	compID := c.compIDs[h]
	slotID := c.slotIDs[h]
	c.mu.Unlock()

	intensity := math.Max(0, math.Min(1, u.Intensity))
	err := c.send(map[string]any{
		"$type": "updateComponent",
		"data": map[string]any{
			"id": compID,
			"members": map[string]any{
				"Color":     float3Val(u.Color.R, u.Color.G, u.Color.B),
				"Intensity": floatVal(intensity * intensityScale),
			},
		},
	})
	if err != nil {
		return err
	}

	if u.Yaw != nil {
		return c.send(map[string]any{
			"$type": "updateSlot",
			"data": map[string]any{
				"id":       slotID,
				"rotation": floatQVal(yawQuat(*u.Yaw)),
			},
		})
	}
	return nil
}

// yawQuat builds a rotation about the vertical axis from degrees.
func yawQuat(degrees float64) wireQuat {
	half := degrees * math.Pi / 360
	return wireQuat{Y: math.Sin(half), W: math.Cos(half)}
}

// RemoveLight removes one light's slot, taking the PointLight component with
// it.
func (c *ResoniteClient) RemoveLight(h Handle) error {
	c.mu.Lock()
	if int(h) < 0 || int(h) >= len(c.slotIDs) {
		c.mu.Unlock()
		return fmt.Errorf("transport: unknown light handle %d", h)
	}
	slotID := c.slotIDs[h]
	c.mu.Unlock()

	return c.send(map[string]any{
		"$type":  "removeSlot",
		"slotId": slotID,
	})
}

// Close removes the root slot, which takes any remaining lights with it, and
// shuts the websocket down.
func (c *ResoniteClient) Close() error {
	c.mu.Lock()
	rootID := c.rootID
	c.rootID = ""
	c.mu.Unlock()

	if rootID != "" {
		if err := c.send(map[string]any{
			"$type":  "removeSlot",
			"slotId": rootID,
		}); err != nil {
			log.Warnf("Root slot removal failed: %v", err)
		}
	}

	c.mu.Lock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.mu.Unlock()
	return c.conn.Close()
}
