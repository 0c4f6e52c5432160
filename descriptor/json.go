package descriptor

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"

	"github.com/KiritakeKumi/descant/descutils"
)

// BuildStatsString dumps cache and batch state as JSON for diagnostics. The
// detailed form adds per-group and per-batch breakdowns.
func (m *Manager) BuildStatsString(detailed bool) string {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	writer := jwriter.NewWriter()
	obj := writer.Object()

	general := obj.Name("General").Object()
	general.Name("Mode").String(m.mode.String())
	general.Name("Layouts").Int(m.layouts.Count())
	general.Name("Pools").Int(m.stats.PoolCount)
	general.Name("SetsAllocated").Int(m.stats.SetsAllocated)
	general.Name("SetsLive").Int(m.stats.SetsLive)
	general.Name("SetsRecycled").Int(m.stats.SetsRecycled)
	general.Name("SetWrites").Int(m.stats.SetWrites)
	general.Name("CacheHits").Int(m.stats.CacheHits)
	general.Name("CacheMisses").Int(m.stats.CacheMisses)
	general.Name("LastCompletedBatch").Int(int(m.lastCompleted))
	general.End()

	var backing descutils.Statistics
	m.suballocator.AddStatistics(&backing)
	backingObj := obj.Name("Backing").Object()
	backingObj.Name("Blocks").Int(backing.BlockCount)
	backingObj.Name("BlockBytes").Int(backing.BlockBytes)
	backingObj.Name("Regions").Int(backing.RegionCount)
	backingObj.Name("LiveBlocks").Int(m.suballocator.LiveBlockCount())
	backingObj.End()

	if detailed {
		var det descutils.DetailedStatistics
		det.Clear()
		m.suballocator.AddDetailedStatistics(&det)
		detObj := obj.Name("BackingDetailed").Object()
		detObj.Name("RegionBytes").Int(det.RegionBytes)
		detObj.Name("RegionSizeMin").Int(det.RegionSizeMin)
		detObj.Name("RegionSizeMax").Int(det.RegionSizeMax)
		detObj.Name("UnusedRanges").Int(det.UnusedRangeCount)
		detObj.End()

		groups := obj.Name("Groups").Array()
		for _, g := range m.pools.groups {
			groupObj := groups.Object()
			groupObj.Name("Pools").Int(len(g.pools))
			groupObj.Name("Allocated").Int(g.allocated)
			groupObj.Name("Recycled").Int(len(g.recycled))
			groupObj.Name("Unused").Int(len(g.unused))
			groupObj.Name("LastCheckout").Int(int(g.lastCheckout))
			groupObj.End()
		}
		groups.End()

		retired := obj.Name("Retired").Array()
		for _, rr := range m.retired {
			regionObj := retired.Object()
			rr.region.RegionJsonData(regionObj)
			regionObj.Name("LastBatch").Int(int(rr.batchID))
			regionObj.End()
		}
		retired.End()

		batches := obj.Name("InFlight").Array()
		for _, b := range m.inFlight {
			batchObj := batches.Object()
			batchObj.Name("Id").Int(int(b.id))
			batchObj.Name("State").String(b.state.String())
			batchObj.Name("Draws").Int(b.drawCount)
			batchObj.Name("Resources").Int(len(b.resources))
			batchObj.Name("Sets").Int(len(b.sets))
			batchObj.End()
		}
		batches.End()
	}

	obj.End()
	return string(writer.Bytes())
}
