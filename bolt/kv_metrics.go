package bolt

import (
	"bytes"

	"github.com/mgt2e/docmigrate/kv"
	"github.com/prometheus/client_golang/prometheus"
	bolt "go.etcd.io/bbolt"
)

const (
	metricsNamespace = "docmigrate"
	metricsSubsystem = "store"
)

// packDocumentsCollection labels the documents held across all packs.
const packDocumentsCollection = "pack_documents"

var _ prometheus.Collector = (*KVStore)(nil)

var (
	txDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricsNamespace, metricsSubsystem, "transactions_total"),
		"Number of transactions started on the world store.",
		[]string{"kind"}, nil)

	documentsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricsNamespace, metricsSubsystem, "documents"),
		"Number of documents held by the world store.",
		[]string{"collection"}, nil)

	sizeDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricsNamespace, metricsSubsystem, "size_bytes"),
		"Size of the world store file.",
		nil, nil)
)

// Describe implements prometheus.Collector.
func (s *KVStore) Describe(ch chan<- *prometheus.Desc) {
	ch <- txDesc
	ch <- documentsDesc
	ch <- sizeDesc
}

// Collect implements prometheus.Collector. A closed store yields nothing.
func (s *KVStore) Collect(ch chan<- prometheus.Metric) {
	if s.db == nil {
		return
	}

	stats := s.db.Stats()
	ch <- prometheus.MustNewConstMetric(txDesc, prometheus.CounterValue, float64(stats.TxN), "read")
	ch <- prometheus.MustNewConstMetric(txDesc, prometheus.CounterValue, float64(stats.TxStats.Write), "write")

	_ = s.db.View(func(tx *bolt.Tx) error {
		ch <- prometheus.MustNewConstMetric(sizeDesc, prometheus.GaugeValue, float64(tx.Size()))

		for collection, name := range kv.CollectionBuckets {
			n := 0
			if b := tx.Bucket(name); b != nil {
				n = b.Stats().KeyN
			}
			ch <- prometheus.MustNewConstMetric(documentsDesc, prometheus.GaugeValue, float64(n), collection)
		}

		packDocs := 0
		prefix := []byte(kv.PackDocumentsPrefix)
		_ = tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			if bytes.HasPrefix(name, prefix) {
				packDocs += b.Stats().KeyN
			}
			return nil
		})
		ch <- prometheus.MustNewConstMetric(documentsDesc, prometheus.GaugeValue, float64(packDocs), packDocumentsCollection)
		return nil
	})
}
