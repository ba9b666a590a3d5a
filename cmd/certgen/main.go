// Command certgen writes a self-signed certificate pair for serving the site
// over TLS on a school intranet.
package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"flag"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const validFor = 10 * 365 * 24 * time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
}

func run() error {
	var (
		ipFlag   string
		hostFlag string
		outDir   string
	)
	flag.StringVar(&ipFlag, "ip", "", "comma separated IPs, loopback when empty")
	flag.StringVar(&hostFlag, "host", "", "comma separated DNS names")
	flag.StringVar(&outDir, "out", ".", "directory for cert.pem and key.pem")
	flag.Parse()

	certPath := filepath.Join(outDir, "cert.pem")
	keyPath := filepath.Join(outDir, "key.pem")
	if exists(certPath) && exists(keyPath) {
		return errors.New("cert exists")
	}

	ips, err := parseIPs(ipFlag)
	if err != nil {
		return err
	}
	subject := pkix.Name{
		Organization: []string{"海林市高级中学校友会"},
		Country:      []string{"CN"},
		Province:     []string{"Heilongjiang"},
		Locality:     []string{"Hailin"},
	}

	caKey, err := rsa.GenerateKey(rand.Reader, 4096)
	if err != nil {
		return err
	}
	now := time.Now()
	ca := &x509.Certificate{
		SerialNumber:          serial(),
		Subject:               subject,
		NotBefore:             now,
		NotAfter:              now.Add(validFor),
		IsCA:                  true,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth, x509.ExtKeyUsageServerAuth},
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, ca, ca, &caKey.PublicKey, caKey)
	if err != nil {
		return err
	}
	caCert, err := x509.ParseCertificate(caDER)
	if err != nil {
		return err
	}

	key, err := rsa.GenerateKey(rand.Reader, 4096)
	if err != nil {
		return err
	}
	leaf := &x509.Certificate{
		SerialNumber: serial(),
		Subject:      subject,
		IPAddresses:  ips,
		DNSNames:     splitList(hostFlag),
		NotBefore:    now,
		NotAfter:     now.Add(validFor),
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
	}
	der, err := x509.CreateCertificate(rand.Reader, leaf, caCert, &key.PublicKey, caKey)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	if err := writePEM(certPath, "CERTIFICATE", der); err != nil {
		return err
	}
	return writePEM(keyPath, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(key))
}

func parseIPs(raw string) ([]net.IP, error) {
	names := splitList(raw)
	if len(names) == 0 {
		return []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback}, nil
	}
	ips := make([]net.IP, 0, len(names))
	for _, name := range names {
		ip := net.ParseIP(name)
		if ip == nil {
			return nil, fmt.Errorf("bad ip %q", name)
		}
		ips = append(ips, ip)
	}
	return ips, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writePEM(path, kind string, der []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := pem.Encode(f, &pem.Block{Type: kind, Bytes: der}); err != nil {
		return errors.Join(err, f.Close())
	}
	return f.Close()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

func serial() *big.Int {
	limit := new(big.Int).Lsh(big.NewInt(1), 62)
	i, err := rand.Int(rand.Reader, limit)
	if err != nil {
		panic(err)
	}
	return i
}
