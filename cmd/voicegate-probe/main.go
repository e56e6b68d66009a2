// Command voicegate-probe exercises the client audio pipeline (C7)
// end-to-end against a running gateway, standing in for the browser UI
// that is out of scope for this module. It generates a synthetic tone,
// runs it through the resampler and framer exactly as a browser capture
// pipeline would, streams the resulting PCM16 frames over /ws/chat, and
// decodes whatever audio comes back through the playback queue.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fenwick-labs/voicegate/internal/clientaudio"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "gateway host:port")
	jwt := flag.String("jwt", "", "bearer token forwarded as the jwt query parameter (empty selects the anonymous persona)")
	seconds := flag.Float64("seconds", 2.0, "length of the synthetic probe tone in seconds")
	srcRate := flag.Float64("rate", 48000, "sample rate of the synthetic capture, matching a browser's native mic rate")
	freq := flag.Float64("freq", 440, "probe tone frequency in Hz")
	flag.Parse()

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws/chat"}
	if *jwt != "" {
		q := u.Query()
		q.Set("jwt", *jwt)
		u.RawQuery = q.Encode()
	}

	log.Printf("dialing %s", u.String())
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	tone := sineWave(*srcRate, *freq, *seconds, 0.6)
	resampler := clientaudio.NewResampler(*srcRate)
	framer := clientaudio.NewFramer()

	resampled := resampler.Process(tone)
	pcm := clientaudio.FloatsToPCM16(resampled)
	frames := framer.Push(pcm)
	if remainder := framer.Flush(); len(remainder) > 0 {
		frames = append(frames, remainder)
	}

	log.Printf("sending %d frame(s) of %d samples each", len(frames), clientaudio.FrameSamples)
	for _, frame := range frames {
		payload := make([]byte, len(frame)*2)
		for i, s := range frame {
			payload[2*i] = byte(s)
			payload[2*i+1] = byte(s >> 8)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
			log.Fatalf("write audio frame: %v", err)
		}
	}

	playback := clientaudio.NewPlaybackQueue()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		switch msgType {
		case websocket.BinaryMessage:
			playback.Enqueue(bytesToPCM16(data))
		case websocket.TextMessage:
			log.Printf("event: %s", data)
		}
	}

	var totalSamples int
	for {
		samples, ok := playback.Dequeue()
		if !ok {
			break
		}
		totalSamples += len(samples)
	}
	fmt.Printf("received %d playback sample(s) across the probe window\n", totalSamples)
}

func sineWave(rate, freqHz, seconds, amplitude float64) []float64 {
	n := int(rate * seconds)
	out := make([]float64, n)
	for i := range out {
		t := float64(i) / rate
		out[i] = amplitude * math.Sin(2*math.Pi*freqHz*t)
	}
	return out
}

func bytesToPCM16(data []byte) []int16 {
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(data[2*i]) | int16(data[2*i+1])<<8
	}
	return out
}
