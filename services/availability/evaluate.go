package availability

// Evaluate computes the dates to notify about this cycle: the desired dates
// observed open in records, minus the dates already announced. Pure function,
// no side effects; the result is a set (Sorted is for rendering only).
func Evaluate(records []Record, desired DateSet, notified DateSet) DateSet {
	out := DateSet{}
	for _, r := range records {
		if !r.Open {
			continue
		}
		if !desired.Has(r.Date) {
			continue
		}
		if notified.Has(r.Date) {
			continue
		}
		out.Add(r.Date)
	}
	return out
}
