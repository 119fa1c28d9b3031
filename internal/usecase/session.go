// Package usecase implements the SessionRunner orchestration of spec.md
// §4.6: the outer per-segment download loop, seek interruption/splicing,
// and the buffer-depletion/rebuffer accounting that feeds QoE metrics.
// Grounded on sabre.py's process_download_loop/deplete_buffer/
// interrupted_by_seek functions, with every module-global in global_state.py
// threaded explicitly as Session fields instead (Design Notes §9).
package usecase

import (
	"io"
	"log/slog"
	"math"

	"sabre/internal/domain"
	"sabre/internal/domain/ports"
	"sabre/internal/metrics"
	"sabre/internal/report"
)

// Config collects the per-run tunables that are not owned by any one
// subsystem (abr_algorithms.py constructors receive these from the CLI-built
// config dict; here they belong to the runner that enforces them).
type Config struct {
	BufferSize      float64 // ms, spec.md §6 --max-buffer
	RampupThreshold *int    // nil matches network sustainable quality
	NoAbandon       bool
}

// Session is the single-goroutine, single-writer simulation state: the
// playback buffer, the pending seek queue, the running metrics, and the
// strategy/network/estimator ports it drives. No sync primitives guard it —
// there is exactly one goroutine mutating it, by design (spec.md §5).
type Session struct {
	manifest  *domain.Manifest
	network   ports.NetworkModel
	abr       ports.Abr
	replacer  ports.Replacer
	estimator ports.ThroughputEstimator
	seeks     *domain.SeekQueue
	buffer    *domain.PlaybackBuffer
	metrics   *domain.SessionMetrics
	logger    *slog.Logger
	verbose   io.Writer
	graph     io.Writer

	bufferSize      float64
	rampupThreshold *int
	noAbandon       bool

	totalPlayTime      float64
	lastSeekTime       float64
	nextSegment        int
	abandonedToQuality *int
	pendingQualityUp   []domain.PendingQualityUp
}

// New constructs a Session. abrCtor and replacerCtor receive the Session
// itself as their ports.SessionView, the same deferred-construction pattern
// Prime uses for the network model: the strategies need a view that only
// exists once the Session does, so the caller hands over constructors
// instead of already-bound instances. network must not yet be primed; New
// registers the quality-change callback and primes it itself, so the
// callback can close over the Session being constructed.
func New(
	manifest *domain.Manifest,
	network ports.NetworkModel,
	abrCtor func(ports.SessionView) ports.Abr,
	replacerCtor func(ports.SessionView) ports.Replacer,
	estimator ports.ThroughputEstimator,
	seeks *domain.SeekQueue,
	cfg Config,
	logger *slog.Logger,
	verbose, graph io.Writer,
) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		manifest:        manifest,
		network:         network,
		estimator:       estimator,
		seeks:           seeks,
		buffer:          domain.NewPlaybackBuffer(manifest.SegmentTime),
		metrics:         &domain.SessionMetrics{},
		logger:          logger,
		verbose:         verbose,
		graph:           graph,
		bufferSize:      cfg.BufferSize,
		rampupThreshold: cfg.RampupThreshold,
		noAbandon:       cfg.NoAbandon,
	}
	s.abr = abrCtor(s)
	s.replacer = replacerCtor(s)
	network.SetOnQualityChange(s.advertizeNewNetworkQuality)
	network.Prime()
	return s
}

// ports.SessionView implementation.

func (s *Session) Manifest() *domain.Manifest         { return s.manifest }
func (s *Session) Throughput() float64                { return s.estimator.Throughput() }
func (s *Session) Latency() float64                   { return s.estimator.Latency() }
func (s *Session) BufferLevel() float64               { return s.buffer.Level() }
func (s *Session) BufferFCC() float64                 { return s.buffer.FCC() }
func (s *Session) BufferContents() []domain.BufferEntry { return s.buffer.Contents() }

// Metrics returns the accumulated QoE metrics; valid at any point, final
// once Run has returned.
func (s *Session) Metrics() *domain.SessionMetrics { return s.metrics }

// TotalPlayTime returns the playback clock (ms).
func (s *Session) TotalPlayTime() float64 { return s.totalPlayTime }

// Summary snapshots the run into a report.Summary for the final printout.
// gammaP is passed in because it belongs to the ABR strategy's own config,
// not the session.
func (s *Session) Summary(gammaP float64) report.Summary {
	return report.Summary{
		BufferSize:            s.bufferSize,
		PlayedUtility:         s.metrics.PlayedUtility,
		PlayedBitrate:         s.metrics.PlayedBitrate,
		TotalPlayTime:         s.totalPlayTime,
		SegmentTime:           s.manifest.SegmentTime,
		RebufferTime:          s.metrics.RebufferTime,
		RebufferEventCount:    s.metrics.RebufferEventCount,
		TotalBitrateChange:    s.metrics.TotalBitrateChange,
		TotalLogBitrateChange: s.metrics.TotalLogBitrateChange,
		GammaP:                gammaP,
		OverestimateCount:     s.metrics.OverestimateCount,
		OverestimateAverage:   s.metrics.OverestimateAverage,
		GoodEstimateCount:     s.metrics.GoodEstimateCount,
		GoodEstimateAverage:   s.metrics.GoodEstimateAverage,
		EstimateAverage:       s.metrics.EstimateAverage,
		RampupTime:            s.metrics.RampupTime,
		SegmentCount:          s.manifest.NumSegments(),
		TotalReactionTime:     s.metrics.TotalReactionTime,
		NetworkTotalTime:      s.network.TotalTime(),
	}
}

// Run drives the session to completion: the first-segment bootstrap, the
// per-segment download loop, and final playout.
func (s *Session) Run() {
	s.bootstrap()
	s.downloadLoop()
	s.playout()
}

func (s *Session) bootstrap() {
	quality := s.abr.FirstQuality()
	size := s.manifest.Segments[0][quality]
	dp := s.network.Download(size, 0, quality, 0, nil)

	downloadTime := dp.DownloadTime()
	s.metrics.StartupTime = downloadTime
	s.buffer.PushTail(domain.BufferEntry{SegmentIndex: 0, Quality: dp.Quality})

	// Matches sabre.py's bootstrap, which seeds the estimator from the
	// requested size rather than bytes actually downloaded (size == downloaded
	// here since the very first download never abandons).
	t := dp.Size / downloadTime
	l := dp.TimeToFirstBit
	s.estimator.Push(downloadTime, t, l)
	s.totalPlayTime += dp.Time

	report.Bootstrap(s.verbose, dp, s.BufferLevel())
	report.BootstrapGraphLines(s.graph, dp, s.network.CurrentPeriod(), s.manifest.Bitrates[dp.Quality], s.BufferLevel())

	s.nextSegment = 1
}

func (s *Session) downloadLoop() {
	for s.nextSegment < s.manifest.NumSegments() {
		fullDelay := s.BufferLevel() + s.manifest.SegmentTime - s.bufferSize
		if fullDelay > 0 {
			if !s.deplete(fullDelay) {
				continue
			}
			s.network.Delay(fullDelay)
			s.abr.ReportDelay(fullDelay)
			report.FullBufferDelay(s.verbose, fullDelay, s.BufferLevel())
		}

		var quality int
		var delay float64
		var replace *int
		if s.abandonedToQuality == nil {
			quality, delay = s.abr.GetQualityDelay(s.nextSegment)
			replace = s.replacer.CheckReplace(quality)
		} else {
			quality = *s.abandonedToQuality
			s.abandonedToQuality = nil
		}

		var currentSegment int
		var checkAbandon ports.CheckAbandonFunc
		if replace != nil {
			delay = 0
			currentSegment = s.nextSegment + *replace
			checkAbandon = s.replacer.CheckAbandon
		} else {
			currentSegment = s.nextSegment
			checkAbandon = s.abr.CheckAbandon
		}
		if s.noAbandon {
			checkAbandon = nil
		}

		size := s.manifest.Segments[currentSegment][quality]

		if delay > 0 {
			if !s.deplete(delay) {
				continue
			}
			s.network.Delay(delay)
			report.AbrDelay(s.verbose, delay, s.BufferLevel())
		}

		dp := s.network.Download(size, currentSegment, quality, s.BufferLevel(), checkAbandon)

		startTime := math.Round(s.totalPlayTime)
		success := s.deplete(dp.Time)
		endTime := math.Round(s.totalPlayTime)

		if !success {
			// A seek interrupted depletion partway through this download;
			// report it against the effective (truncated) portion only, and
			// restart the loop without touching the buffer (spec.md §4.2/§4.6).
			effectiveEnd := s.lastSeekTime
			effectiveDownloadTime := effectiveEnd - startTime
			effectiveDP := dp
			if dp.Time > 0 {
				effectiveDP.Downloaded = dp.Downloaded * effectiveDownloadTime / dp.Time
			}
			report.Download(s.verbose, report.DownloadEvent{
				StartTime: startTime, EndTime: effectiveEnd, Segment: currentSegment,
				Progress: effectiveDP, Replace: replace, BufferLevelAfter: s.BufferLevel(),
			})
			report.GraphLine(s.graph, report.DownloadEvent{
				Segment: currentSegment, EndTime: effectiveEnd, Progress: effectiveDP,
				Period: s.network.CurrentPeriod(), Bitrate: s.manifest.Bitrates[dp.Quality],
				BufferLevelAfter: s.BufferLevel(), IsBola: s.isBolaFlag(),
			})
			continue
		}

		if replace == nil {
			if !dp.Abandoned() {
				s.buffer.PushTail(domain.BufferEntry{SegmentIndex: s.nextSegment, Quality: quality})
				s.nextSegment++
			} else {
				s.abandonedToQuality = dp.AbandonToQuality
				metrics.SegmentsAbandonedTotal.Inc()
			}
		} else if !dp.Abandoned() {
			if s.BufferLevel()+s.manifest.SegmentTime*float64(*replace) >= 0 {
				idx := s.buffer.Len() + *replace
				s.buffer.SetQualityAt(idx, quality)
				metrics.ReplacementsTotal.Inc()
			} else {
				s.logger.Warn("too late to replace", "segment", currentSegment)
			}
		} else {
			metrics.SegmentsAbandonedTotal.Inc()
		}

		metrics.BufferLevelMs.Set(s.BufferLevel())
		metrics.ThroughputEstimateBps.Set(s.estimator.Throughput())
		metrics.SustainableQuality.Set(float64(s.network.SustainableQuality()))
		metrics.DownloadDuration.Observe(dp.DownloadTime() / 1000)

		bufferLevelAfter := s.BufferLevel()
		report.Download(s.verbose, report.DownloadEvent{
			StartTime: startTime, EndTime: endTime, Segment: currentSegment,
			Progress: dp, Replace: replace, BufferLevelAfter: bufferLevelAfter,
		})
		report.GraphLine(s.graph, report.DownloadEvent{
			Segment: currentSegment, EndTime: endTime, Progress: dp,
			Period: s.network.CurrentPeriod(), Bitrate: s.manifest.Bitrates[dp.Quality],
			BufferLevelAfter: bufferLevelAfter, RebufferTime: s.metrics.SegmentRebufferTime,
			IsBola: s.isBolaFlag(),
		})
		if s.graph != nil && s.metrics.SegmentRebufferTime > 0 {
			s.metrics.SegmentRebufferTime = 0
		}

		s.abr.ReportDownload(dp, replace != nil)

		downloadTime := dp.DownloadTime()
		t := dp.Downloaded / downloadTime
		l := dp.TimeToFirstBit
		s.metrics.RecordThroughputSample(s.estimator.Throughput(), t)
		if !dp.Abandoned() {
			s.estimator.Push(downloadTime, t, l)
		}
	}
}

func (s *Session) playout() {
	s.deplete(s.BufferLevel())
	s.buffer.Clear()
}

// isBolaFlag reports the active arm of a hybrid strategy for the graph
// trace, when the strategy exposes one (Dynamic, DynamicDash); strategies
// that don't are reported as false, matching sabre.py's gs.is_bola default.
func (s *Session) isBolaFlag() bool {
	type bolaFlagged interface{ IsBola() bool }
	if r, ok := s.abr.(bolaFlagged); ok {
		return r.IsBola()
	}
	return false
}

// deplete plays out time ms of buffer, returns false if a seek interrupted
// it partway (sabre.py's deplete_buffer).
func (s *Session) deplete(time float64) bool {
	if s.buffer.Empty() {
		s.metrics.RebufferTime += time
		if s.interruptedBySeek(time) {
			return false
		}
		s.metrics.RebufferEventCount++
		s.metrics.SegmentRebufferTime = time
		metrics.RebufferEventsTotal.Inc()
		metrics.RebufferDuration.Observe(time / 1000)
		return true
	}

	if s.buffer.FCC() > 0 {
		if time+s.buffer.FCC() < s.manifest.SegmentTime {
			s.buffer.SetFCC(s.buffer.FCC() + time)
			return !s.interruptedBySeek(time)
		}
		dt := s.manifest.SegmentTime - s.buffer.FCC()
		time -= dt
		if s.interruptedBySeek(dt) {
			return false
		}
		s.buffer.PopHead()
		s.buffer.SetFCC(0)
	}

	for time > 0 && !s.buffer.Empty() {
		entry := s.buffer.Head()
		priorBitrateChange := s.metrics.TotalBitrateChange
		s.metrics.RecordPlayedSegment(s.manifest, entry.Quality)
		metrics.SegmentsPlayedTotal.Inc()
		metrics.CurrentQuality.Set(float64(entry.Quality))
		metrics.BitrateChangeTotal.Add(s.metrics.TotalBitrateChange - priorBitrateChange)

		if s.metrics.RampupTime == nil {
			rt := s.network.SustainableQuality()
			if s.rampupThreshold != nil {
				rt = *s.rampupThreshold
			}
			if entry.Quality >= rt {
				v := s.totalPlayTime - s.metrics.RampupOrigin
				s.metrics.RampupTime = &v
			}
		}

		s.markQualityUpMaturation(entry.Quality)

		if time >= s.manifest.SegmentTime {
			s.buffer.PopHead()
			if s.interruptedBySeek(s.manifest.SegmentTime) {
				return false
			}
			time -= s.manifest.SegmentTime
		} else {
			s.buffer.SetFCC(time)
			if s.interruptedBySeek(time) {
				return false
			}
			time = 0
		}
	}

	if time > 0 {
		s.metrics.RebufferTime += time
		if s.interruptedBySeek(time) {
			return false
		}
		s.metrics.RebufferEventCount++
		s.metrics.SegmentRebufferTime = time
		metrics.RebufferEventsTotal.Inc()
		metrics.RebufferDuration.Observe(time / 1000)
	}

	s.processQualityUp(s.totalPlayTime)
	return true
}

// interruptedBySeek advances the play clock by delta unless a pending seek
// event falls within it, in which case the seek is processed — buffer
// realigned, ABR notified, rampup tracker reset — and true is returned so
// the caller unwinds (sabre.py's interrupted_by_seek).
func (s *Session) interruptedBySeek(delta float64) bool {
	event, ok := s.seeks.Peek()
	if !ok {
		s.totalPlayTime += delta
		return false
	}
	if !(s.totalPlayTime < event.SeekWhenMs && s.totalPlayTime+delta >= event.SeekWhenMs) {
		s.totalPlayTime += delta
		return false
	}

	s.totalPlayTime = event.SeekWhenMs
	event = s.seeks.Pop()
	seekToMs := event.SeekToMs

	segTime := s.manifest.SegmentTime
	floorIdx := int(math.Floor(seekToMs / segTime))
	prevBoundary := float64(floorIdx) * segTime
	into := seekToMs - prevBoundary

	var newSegment int
	if into < segTime/2 {
		newSegment = floorIdx
	} else {
		newSegment = floorIdx + 1
	}

	s.lastSeekTime = s.totalPlayTime
	metrics.SeeksTotal.Inc()
	report.SeekNotice(s.verbose, s.totalPlayTime, seekToMs/1000, newSegment)

	bufferBase := s.nextSegment - s.buffer.Len()
	if !s.buffer.Empty() && newSegment >= bufferBase && newSegment < s.nextSegment {
		s.buffer.KeepSuffixFrom(newSegment)
	} else {
		s.buffer.Clear()
		s.nextSegment = newSegment
	}

	if newSegment == floorIdx {
		s.buffer.SetFCC(seekToMs - float64(floorIdx)*segTime)
	} else {
		s.buffer.SetFCC(0)
	}

	s.abr.ReportSeek(seekToMs)
	s.metrics.RampupOrigin = s.totalPlayTime
	s.metrics.RampupTime = nil

	return true
}

// markQualityUpMaturation records that playback has reached a pending
// quality-up's advertised level, completing it (the reaction-time cutoff
// later decides whether it actually counts — sabre.py's inline loop inside
// deplete_buffer).
func (s *Session) markQualityUpMaturation(playedQuality int) {
	for i := range s.pendingQualityUp {
		p := &s.pendingQualityUp[i]
		if p.CompletedAt == nil && playedQuality >= p.Quality {
			t := s.totalPlayTime
			p.CompletedAt = &t
		}
	}
}

// processQualityUp retires pending quality-up entries older than the
// buffer-size cutoff, accumulating reaction time (sabre.py's
// process_quality_up). now is measured on whichever clock the caller holds
// — the play clock from deplete, the network clock from
// advertizeNewNetworkQuality — mirroring the source exactly (Design Notes
// §9: preserved, not reconciled).
func (s *Session) processQualityUp(now float64) {
	cutoff := now - s.bufferSize
	for len(s.pendingQualityUp) > 0 && s.pendingQualityUp[0].AdvertisedAt < cutoff {
		p := s.pendingQualityUp[0]
		s.pendingQualityUp = s.pendingQualityUp[1:]
		var reaction float64
		if p.CompletedAt == nil {
			reaction = s.bufferSize
		} else {
			reaction = math.Min(s.bufferSize, *p.CompletedAt-p.AdvertisedAt)
		}
		s.metrics.TotalReactionTime += reaction
	}
}

// advertizeNewNetworkQuality is the NetworkModel quality-change callback: it
// matures any pending switches the new quality makes moot, and registers a
// new pending switch when the sustainable quality rises past everything
// already buffered or pending (sabre.py's advertize_new_network_quality).
func (s *Session) advertizeNewNetworkQuality(quality, previousQuality int) {
	s.processQualityUp(s.network.TotalTime())

	for i := range s.pendingQualityUp {
		p := &s.pendingQualityUp[i]
		if p.CompletedAt == nil && p.Quality > quality {
			t := s.network.TotalTime()
			p.CompletedAt = &t
		}
	}

	if quality <= previousQuality {
		return
	}
	for _, e := range s.buffer.Contents() {
		if quality <= e.Quality {
			return
		}
	}
	for _, p := range s.pendingQualityUp {
		if quality <= p.Quality {
			return
		}
	}

	s.pendingQualityUp = append(s.pendingQualityUp, domain.PendingQualityUp{
		AdvertisedAt: s.network.TotalTime(),
		Quality:      quality,
	})
}
